package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Howie-Waves/StockMate/internal/api/handlers"
	"github.com/Howie-Waves/StockMate/internal/backtest"
	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/decision"
	"github.com/Howie-Waves/StockMate/internal/explain"
	"github.com/Howie-Waves/StockMate/internal/marketdata"
	"github.com/Howie-Waves/StockMate/internal/report"
	"github.com/Howie-Waves/StockMate/internal/risk"
	"github.com/Howie-Waves/StockMate/internal/technical"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

func bars(n int) contracts.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make(contracts.PriceSeries, n)
	for i := range series {
		c := 50 + 3*math.Sin(float64(i)/6)
		series[i] = contracts.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000}
	}
	return series
}

func newTestRouter(t *testing.T, limiter *ClientLimiter) (http.Handler, report.Store) {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()

	data := marketdata.NewMemoryProvider()
	require.NoError(t, data.SaveBars(ctx, "600519", bars(200)))
	require.NoError(t, data.SaveBars(ctx, "000002", bars(30)))
	require.NoError(t, data.SaveNews(ctx, "600519", []contracts.NewsItem{{Title: "业绩增长"}}))

	runner := backtest.NewRunner(backtest.DefaultConfig(), log)
	agent := technical.NewAgent(runner, data, log)
	gate := risk.NewGate(risk.DefaultThresholds(), log)
	engine := decision.NewEngine(data, data, agent, gate, explain.NewEnricher(nil, 0, log), decision.DefaultOptions(), log)
	store := report.NewMemoryRepository()

	h := Handlers{
		Analysis: handlers.NewAnalysisHandler(engine, agent, store, log),
		Tools:    handlers.NewToolsHandler(gate.Thresholds(), log),
		Reports:  handlers.NewReportHandler(store, log),
		Batch:    handlers.NewBatchHandler(engine, store, log),
	}
	health := func(*http.Request) map[string]interface{} {
		return map[string]interface{}{"database": "disabled"}
	}
	return NewRouter(h, limiter, health, log), store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec, body := do(t, router, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disabled", body["database"])
}

func TestAnalysis_SavesAndReadsBack(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec, body := do(t, router, "GET", "/api/analysis/600519.SH?strategy=ma&capital=50000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "600519", body["ticker"])
	assert.Equal(t, 56.0, body["sentiment_score"])
	assert.Contains(t, []interface{}{"Buy", "Sell", "Wait"}, body["final_decision"])
	assert.Contains(t, body, "analysis_timestamp")

	if k, ok := body["kelly_result"].(map[string]interface{}); ok {
		assert.Equal(t, 50000.0, k["planned_capital"])
	}

	rec, latest := do(t, router, "GET", "/api/reports/600519/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body["final_decision"], latest["final_decision"])

	rec, list := do(t, router, "GET", "/api/reports?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, list["count"])
}

func TestAnalysis_UnknownTickerStillReports(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec, body := do(t, router, "GET", "/api/analysis/300750", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rejected", body["risk_assessment"])
	assert.Equal(t, "Wait", body["final_decision"])
	assert.Nil(t, body["backtest_win_rate"])
	assert.NotContains(t, body, "kelly_result")
}

func TestErrorMapping(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		kind   string
	}{
		{"invalid strategy", "GET", "/api/analysis/600519?strategy=MACD", nil, 400, "InvalidStrategy"},
		{"bad capital", "GET", "/api/analysis/600519?capital=lots", nil, 400, "ConfigurationError"},
		{"backtest no data", "GET", "/api/backtest/300750", nil, 404, "DataUnavailable"},
		{"backtest short history", "GET", "/api/backtest/000002", nil, 422, "InsufficientHistory"},
		{"backtest bad strategy", "GET", "/api/backtest/600519?strategy=KDJ", nil, 400, "InvalidStrategy"},
		{"kelly bad ratio", "POST", "/api/kelly", map[string]float64{"win_probability": 50, "win_loss_ratio": -1}, 400, "ConfigurationError"},
		{"no stored report", "GET", "/api/reports/300750/latest", nil, 404, "DataUnavailable"},
		{"NaN capital", "GET", "/api/analysis/600519?capital=NaN", nil, 400, "ConfigurationError"},
		{"infinite stop loss", "GET", "/api/analysis/600519?stop_loss=Inf", nil, 400, "ConfigurationError"},
		{"blank ticker", "GET", "/api/analysis/%20", nil, 400, "ConfigurationError"},
		{"suffix only ticker", "GET", "/api/backtest/.SH", nil, 400, "ConfigurationError"},
		{"kelly subnormal ratio", "POST", "/api/kelly", map[string]float64{"win_probability": 50, "win_loss_ratio": 1e-320, "planned_capital": 1000}, 400, "ConfigurationError"},
		{"kelly subnormal stop loss", "POST", "/api/kelly", map[string]float64{"win_probability": 55, "stop_loss_pct": 1e-310, "take_profit_pct": 15}, 400, "ConfigurationError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestBacktestEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec, body := do(t, router, "GET", "/api/backtest/600519?strategy=Bollinger", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bollinger", body["strategy"])
	assert.Len(t, body["equity_curve"], 200)
}

func TestKellyEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec, body := do(t, router, "POST", "/api/kelly", map[string]float64{
		"win_probability": 68, "win_loss_ratio": 2.5, "planned_capital": 100000,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.552, body["kelly_fraction"])
	assert.Equal(t, 55200.0, body["recommended_amount"])
	assert.Equal(t, true, body["is_positive_ev"])
	assert.NotEmpty(t, body["advice"])

	// ratio 생략 → take_profit/stop_loss
	rec, body = do(t, router, "POST", "/api/kelly", map[string]float64{"win_probability": 35, "stop_loss_pct": 10, "take_profit_pct": 15})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.5, body["win_loss_ratio"])
	assert.Equal(t, 0.0, body["kelly_fraction"])
	assert.Equal(t, false, body["is_positive_ev"])
}

func TestRiskEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec, body := do(t, router, "POST", "/api/risk/evaluate", map[string]float64{"volatility": 60, "max_drawdown": 15})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["approved"])

	rec, body = do(t, router, "POST", "/api/risk/evaluate", map[string]float64{"volatility": 60, "max_drawdown": 15, "max_volatility_limit": 70})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["approved"])
}

func TestRateLimit(t *testing.T) {
	router, _ := newTestRouter(t, NewClientLimiter(0.001, 1))

	rec, _ := do(t, router, "POST", "/api/risk/evaluate", map[string]float64{"volatility": 1})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, router, "POST", "/api/risk/evaluate", map[string]float64{"volatility": 1})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// health 는 제한 없음
	rec, _ = do(t, router, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientLimiter_PerClient(t *testing.T) {
	l := NewClientLimiter(0.001, 1)
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))
}

func TestBatchWebSocket(t *testing.T) {
	router, store := newTestRouter(t, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/batch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(handlers.BatchRequest{Tickers: []string{"600519", "000002", "600519.SH"}}))

	var tickers []string
	for {
		var msg handlers.BatchMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Nil(t, msg.Error)
		if msg.Done {
			assert.Equal(t, 2, msg.Count)
			break
		}
		require.NotNil(t, msg.Report)
		tickers = append(tickers, msg.Report.Ticker)
	}
	assert.ElementsMatch(t, []string{"600519", "000002"}, tickers)

	recent, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestBatchWebSocket_InvalidStrategy(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/batch", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(handlers.BatchRequest{Tickers: []string{"600519"}, Strategy: "MACD"}))

	var msg handlers.BatchMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.NotNil(t, msg.Error)
	assert.Equal(t, "InvalidStrategy", msg.Error.Kind)
}
