package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest [ticker]",
	Short: "단일 종목 전략 백테스트",
	Long: `일봉 종가로 RSI / MA / Bollinger 전략을 시뮬레이션합니다.

- 롱 온리, 전액 진입/청산 (분할 매수 없음)
- 신호는 조건이 처음 성립하는 봉에서만 발생 (edge-triggered)
- 최소 50개 봉 필요
- 수수료/슬리피지는 프로파일 backtest 섹션

Example:
  go run ./cmd/stockmate backtest 600519
  go run ./cmd/stockmate backtest 600519 --strategy Bollinger --days 730
  go run ./cmd/stockmate backtest 600519 --all`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

var (
	backtestStrategy string
	backtestDays     int
	backtestCash     float64
	backtestAll      bool
	backtestJSON     bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	// Flags
	backtestCmd.Flags().StringVar(&backtestStrategy, "strategy", "", "전략 (RSI|MA|Bollinger, 기본: 프로파일)")
	backtestCmd.Flags().IntVar(&backtestDays, "days", 0, "조회 기간 (일, 기본: 프로파일)")
	backtestCmd.Flags().Float64Var(&backtestCash, "cash", 0, "초기 자금 (기본: 프로파일)")
	backtestCmd.Flags().BoolVar(&backtestAll, "all", false, "세 전략 모두 실행")
	backtestCmd.Flags().BoolVar(&backtestJSON, "json", false, "JSON 출력")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	strategies := contracts.AllStrategies()
	if !backtestAll && backtestStrategy != "" {
		s, err := contracts.ParseStrategy(backtestStrategy)
		if err != nil {
			return err
		}
		strategies = []contracts.Strategy{s}
	}

	ticker, err := contracts.ParseTicker(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	opts := a.engine.Options()
	if !backtestAll && backtestStrategy == "" {
		strategies = []contracts.Strategy{opts.Strategy}
	}
	days := opts.LookbackDays
	if backtestDays > 0 {
		days = backtestDays
	}
	cash := opts.InitialCash
	if backtestCash > 0 {
		cash = backtestCash
	}

	results := make([]*contracts.BacktestMetrics, 0, len(strategies))
	for _, s := range strategies {
		m, err := a.agent.Backtest(ctx, ticker, s, days, cash)
		if err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		results = append(results, m)
	}

	if backtestJSON {
		return printJSON(results)
	}

	cfg := a.runner.Config()
	PrintHeader(fmt.Sprintf("Backtest %s", a.displayName(ctx, ticker)))
	PrintKeyValue("Period", fmt.Sprintf("%s ~ %s", first(results[0].Dates), last(results[0].Dates)))
	PrintKeyValue("Cash", fmt.Sprintf("%.2f", cash))
	PrintKeyValue("Commission", fmt.Sprintf("%.2f%%", cfg.Commission*100))
	PrintKeyValue("Slippage", fmt.Sprintf("%.2f%%", cfg.Slippage*100))
	PrintSeparator()
	printBacktestTable(results)
	return nil
}

func first(xs []string) string {
	if len(xs) == 0 {
		return "-"
	}
	return xs[0]
}

func last(xs []string) string {
	if len(xs) == 0 {
		return "-"
	}
	return xs[len(xs)-1]
}
