package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	fixturePath string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockmate",
	Short: "StockMate - A股 투자 의사결정 파이프라인",
	Long: `StockMate Unified CLI

시세/뉴스 → 감성 → 기술/백테스트 → 리스크 거부권 → 결정 → 켈리 사이징.
리스크 게이트가 거부하면 다른 신호와 관계없이 항상 观望(Wait).

Usage:
  go run ./cmd/stockmate [command]

Examples:
  go run ./cmd/stockmate analyze 600519
  go run ./cmd/stockmate analyze 600519 000001 --strategy MA --json
  go run ./cmd/stockmate backtest 600519 --all
  go run ./cmd/stockmate kelly --win-rate 68 --ratio 2.5
  go run ./cmd/stockmate api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C / SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "분석 프로파일 YAML (기본: ANALYSIS_PROFILE 또는 내장 기본값)")
	rootCmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "DB 없이 실행할 때 메모리에 적재할 JSON 시세 fixture")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
