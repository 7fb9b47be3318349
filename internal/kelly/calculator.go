// Package kelly sizes a position with the Kelly criterion.
//
//	f* = (b*p - q) / b
//
// p is the win probability, q = 1-p and b the win/loss (payoff) ratio.
package kelly

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

// Defaults used when the caller does not pick a stop-loss/take-profit pair
const (
	DefaultPlannedCapital = 100000.0
	DefaultStopLossPct    = 5.0
	DefaultTakeProfitPct  = 15.0

	// fallbackWinLossRatio applies when stop-loss is not positive
	fallbackWinLossRatio = 2.0
)

// Risk warnings, first match wins
const (
	WarningNegativeEV    = "⚠️ 负期望值：不建议交易，凯利公式建议空仓等待更好的机会。"
	WarningHighFraction  = "⚠️ 高风险警告：凯利公式建议仓位过高，强烈建议使用半凯利或1/4凯利以降低风险。"
	WarningHalfKelly     = "⚠️ 风险提示：建议考虑使用半凯利公式（保守策略）以平滑资金曲线。"
	WarningLowWinRate    = "⚠️ 胜率偏低：虽然期望值为正，但建议谨慎使用较小仓位。"
	WarningAcceptable    = "✅ 风险可控：可以考虑使用凯利公式建议的仓位。"
	adviceHalfKelly      = "建议使用半凯利公式以降低回撤风险，提高资金曲线的平滑度。"
	adviceRoomToIncrease = "当前建议仓位较为保守，可以考虑适当增加仓位。"
)

// Input holds the sizing parameters
type Input struct {
	WinProbability float64 // 0 ~ 100
	WinLossRatio   float64 // b
	PlannedCapital float64
	StopLossPct    float64
	TakeProfitPct  float64
}

// Validate rejects inputs outside the calculator's domain
func (in Input) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"win probability", in.WinProbability},
		{"win/loss ratio", in.WinLossRatio},
		{"planned capital", in.PlannedCapital},
		{"stop-loss", in.StopLossPct},
		{"take-profit", in.TakeProfitPct},
	} {
		if !finite(f.v) {
			return fmt.Errorf("%w: %s must be finite, got %v", contracts.ErrConfiguration, f.name, f.v)
		}
	}
	if in.WinLossRatio <= 0 {
		return fmt.Errorf("%w: win/loss ratio must be > 0, got %.4f", contracts.ErrConfiguration, in.WinLossRatio)
	}
	if in.WinProbability < 0 || in.WinProbability > 100 {
		return fmt.Errorf("%w: win probability must be in [0,100], got %.2f", contracts.ErrConfiguration, in.WinProbability)
	}
	if in.PlannedCapital <= 0 {
		return fmt.Errorf("%w: planned capital must be > 0, got %.2f", contracts.ErrConfiguration, in.PlannedCapital)
	}
	return nil
}

// Calculate returns the Kelly sizing for in
func Calculate(in Input) (*contracts.KellyResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p := in.WinProbability / 100.0
	q := 1 - p
	b := in.WinLossRatio

	ev := b*p - q
	fraction := ev / b
	positive := ev > 0

	recommended := 0.0
	if fraction > 0 {
		recommended = in.PlannedCapital * fraction
	}
	half := recommended / 2

	actualRatio := 0.0
	if in.StopLossPct > 0 {
		actualRatio = in.TakeProfitPct / in.StopLossPct
	}

	// 극소 b / stop-loss 는 나눗셈에서 ±Inf 로 넘침
	if !finite(fraction) || !finite(recommended) || !finite(actualRatio) {
		return nil, fmt.Errorf("%w: sizing overflows for b=%g stop-loss=%g", contracts.ErrConfiguration, b, in.StopLossPct)
	}

	return &contracts.KellyResult{
		WinProbability:     round(in.WinProbability, 2),
		WinLossRatio:       round(b, 2),
		PlannedCapital:     round(in.PlannedCapital, 2),
		StopLossPct:        round(in.StopLossPct, 2),
		TakeProfitPct:      round(in.TakeProfitPct, 2),
		KellyFraction:      max(0, round(fraction, 4)),
		RecommendedAmount:  round(recommended, 2),
		HalfKellyAmount:    round(half, 2),
		ExpectedValue:      round(ev, 4),
		IsPositiveEV:       positive,
		RiskWarning:        Warning(fraction, positive, in.WinProbability),
		ActualWinLossRatio: round(actualRatio, 2),
	}, nil
}

// CalculateFromBacktest sizes from a backtest win rate, b = takeProfit/stopLoss
func CalculateFromBacktest(winRate, plannedCapital, stopLossPct, takeProfitPct float64) (*contracts.KellyResult, error) {
	return Calculate(Input{
		WinProbability: winRate,
		WinLossRatio:   RatioFromStops(stopLossPct, takeProfitPct),
		PlannedCapital: plannedCapital,
		StopLossPct:    stopLossPct,
		TakeProfitPct:  takeProfitPct,
	})
}

// RatioFromStops derives b from the stop-loss and take-profit percentages.
// A non-finite result is returned as is and rejected by Validate.
func RatioFromStops(stopLossPct, takeProfitPct float64) float64 {
	if stopLossPct <= 0 {
		return fallbackWinLossRatio
	}
	return takeProfitPct / stopLossPct
}

// Warning picks the risk message. Conditions overlap, so order matters.
func Warning(fraction float64, positiveEV bool, winProbability float64) string {
	switch {
	case !positiveEV:
		return WarningNegativeEV
	case fraction > 0.5:
		return WarningHighFraction
	case fraction > 0.25:
		return WarningHalfKelly
	case winProbability < 55:
		return WarningLowWinRate
	default:
		return WarningAcceptable
	}
}

// Advice returns the short sizing tip shown next to a result
func Advice(r *contracts.KellyResult) string {
	if r.KellyFraction > 0.1 {
		return adviceHalfKelly
	}
	return adviceRoomToIncrease
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round(v float64, places int32) float64 {
	if !finite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
