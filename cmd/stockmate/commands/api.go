package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Howie-Waves/StockMate/internal/api"
	"github.com/Howie-Waves/StockMate/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                        - Health check
  GET  /api/analysis/{ticker}         - 전체 분석 (?strategy=&capital=&stop_loss=&take_profit=)
  GET  /api/backtest/{ticker}         - 단일 전략 백테스트 (?strategy=)
  POST /api/kelly                     - 켈리 사이징
  POST /api/risk/evaluate             - 리스크 게이트
  GET  /api/reports                   - 최근 보고서 (?limit=)
  GET  /api/reports/{ticker}/latest   - 종목 최신 보고서
  GET  /ws/batch                      - WebSocket 일괄 분석 스트림

Example:
  go run ./cmd/stockmate api
  go run ./cmd/stockmate api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fmt.Println("=== StockMate API Server ===")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// 1. Handlers
	h := api.Handlers{
		Analysis: handlers.NewAnalysisHandler(a.engine, a.agent, a.store, a.log),
		Tools:    handlers.NewToolsHandler(a.gate.Thresholds(), a.log),
		Reports:  handlers.NewReportHandler(a.store, a.log),
		Batch:    handlers.NewBatchHandler(a.engine, a.store, a.log),
	}

	// 2. Rate limiter
	var limiter *api.ClientLimiter
	if a.cfg.API.RateLimit > 0 {
		limiter = api.NewClientLimiter(a.cfg.API.RateLimit, a.cfg.API.RateBurst)
	}

	// 3. Router + server
	router := api.NewRouter(h, limiter, a.health, a.log)
	server := api.New(a.cfg, a.log, router)

	fmt.Println("\nPress Ctrl+C to stop")
	return server.Serve(ctx, func(addr net.Addr) {
		fmt.Printf("\n✅ Server running on http://%s\n", addr)
	})
}

// health reports storage status for /health
func (a *app) health(r *http.Request) map[string]interface{} {
	out := map[string]interface{}{
		"redis": a.redis.Enabled(),
	}
	if a.db == nil {
		out["database"] = "memory"
		return out
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, err := a.db.HealthCheck(ctx)
	if err != nil {
		out["database"] = "unhealthy"
		out["database_error"] = status.Error
		return out
	}
	out["database"] = status
	return out
}
