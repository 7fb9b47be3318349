package commands

import (
	"fmt"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/kelly"
)

// kellyCmd represents the kelly command
var kellyCmd = &cobra.Command{
	Use:   "kelly",
	Short: "켈리 공식 포지션 사이징",
	Long: `f* = (b·p − q) / b 로 권장 투자 비중을 계산합니다.

--ratio 를 생략하면 take-profit / stop-loss 로 b 를 구합니다.

Example:
  go run ./cmd/stockmate kelly --win-rate 68 --ratio 2.5
  go run ./cmd/stockmate kelly --win-rate 55 --stop-loss 8 --take-profit 20 --capital 50000`,
	RunE: runKelly,
}

var (
	kellyWinRate    float64
	kellyRatio      float64
	kellyCapital    float64
	kellyStopLoss   float64
	kellyTakeProfit float64
	kellyJSON       bool
)

func init() {
	rootCmd.AddCommand(kellyCmd)

	// Flags
	kellyCmd.Flags().Float64Var(&kellyWinRate, "win-rate", 0, "승률 % (0-100, 필수)")
	kellyCmd.Flags().Float64Var(&kellyRatio, "ratio", 0, "손익비 b (기본: take-profit/stop-loss)")
	kellyCmd.Flags().Float64Var(&kellyCapital, "capital", kelly.DefaultPlannedCapital, "계획 자본 (元)")
	kellyCmd.Flags().Float64Var(&kellyStopLoss, "stop-loss", kelly.DefaultStopLossPct, "손절 %")
	kellyCmd.Flags().Float64Var(&kellyTakeProfit, "take-profit", kelly.DefaultTakeProfitPct, "익절 %")
	kellyCmd.Flags().BoolVar(&kellyJSON, "json", false, "JSON 출력")

	kellyCmd.MarkFlagRequired("win-rate")
}

func runKelly(cmd *cobra.Command, args []string) error {
	if err := requireFinite(map[string]float64{
		"win-rate":    kellyWinRate,
		"ratio":       kellyRatio,
		"capital":     kellyCapital,
		"stop-loss":   kellyStopLoss,
		"take-profit": kellyTakeProfit,
	}); err != nil {
		return err
	}

	ratio := kellyRatio
	if !cmd.Flags().Changed("ratio") {
		ratio = kelly.RatioFromStops(kellyStopLoss, kellyTakeProfit)
	}

	result, err := kelly.Calculate(kelly.Input{
		WinProbability: kellyWinRate,
		WinLossRatio:   ratio,
		PlannedCapital: kellyCapital,
		StopLossPct:    kellyStopLoss,
		TakeProfitPct:  kellyTakeProfit,
	})
	if err != nil {
		return err
	}

	if kellyJSON {
		return printJSON(result)
	}

	PrintHeader(fmt.Sprintf("Kelly p=%.2f%% b=%.2f", result.WinProbability, result.WinLossRatio))
	printKellyBody(result)
	return nil
}

// requireFinite rejects NaN/Inf flag values; pflag parses both
func requireFinite(flags map[string]float64) error {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if v := flags[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: --%s must be finite, got %v", contracts.ErrConfiguration, name, v)
		}
	}
	return nil
}
