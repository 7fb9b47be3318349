package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/risk"
	"github.com/Howie-Waves/StockMate/pkg/config"
)

// gateCmd represents the gate command
var gateCmd = &cobra.Command{
	Use:   "gate [ticker]",
	Short: "리스크 게이트 (거부권) 평가",
	Long: `연환산 변동성과 최대 낙폭을 한도와 비교합니다.
한도를 넘으면 다른 신호와 관계없이 Rejected.

종목을 주면 시세 통계로 평가하고, 없으면 --volatility / --drawdown 값으로 평가합니다.

Example:
  go run ./cmd/stockmate gate 600519
  go run ./cmd/stockmate gate --volatility 60 --drawdown 15`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGate,
}

var (
	gateVolatility float64
	gateDrawdown   float64
	gateJSON       bool
)

func init() {
	rootCmd.AddCommand(gateCmd)

	// Flags
	gateCmd.Flags().Float64Var(&gateVolatility, "volatility", 0, "연환산 변동성 %")
	gateCmd.Flags().Float64Var(&gateDrawdown, "drawdown", 0, "최대 낙폭 % (크기)")
	gateCmd.Flags().BoolVar(&gateJSON, "json", false, "JSON 출력")
}

func runGate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var verdict risk.Verdict
	title := fmt.Sprintf("Risk gate vol=%.2f%% dd=%.2f%%", gateVolatility, gateDrawdown)

	if len(args) == 0 {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		profile, err := loadProfile(cfg)
		if err != nil {
			return err
		}
		verdict = risk.Evaluate(gateVolatility, gateDrawdown, profile.Thresholds())
	} else {
		ticker, err := contracts.ParseTicker(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		snap, err := a.provider.FetchSnapshot(ctx, ticker, a.engine.Options().LookbackDays)
		if err != nil {
			a.log.WithError(err).WithTicker(ticker).Warn("No market data, gate fails closed")
		}
		verdict = a.gate.Check(ticker, snap)
		title = "Risk gate " + a.displayName(ctx, ticker)
	}

	if gateJSON {
		return printJSON(verdict)
	}
	printVerdict(title, verdict)
	return nil
}
