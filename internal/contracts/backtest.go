package contracts

import (
	"fmt"
	"strings"
)

// Strategy selects the signal generator used by the backtest runner
type Strategy string

const (
	StrategyRSI       Strategy = "RSI"
	StrategyMA        Strategy = "MA"
	StrategyBollinger Strategy = "Bollinger"
)

// AllStrategies returns the supported strategies in display order
func AllStrategies() []Strategy {
	return []Strategy{StrategyRSI, StrategyMA, StrategyBollinger}
}

// ParseStrategy resolves a strategy id, ignoring case
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range AllStrategies() {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: RSI, MA, Bollinger)", ErrInvalidStrategy, s)
}

// BacktestMetrics is the immutable result of one backtest run
type BacktestMetrics struct {
	Ticker      string    `json:"ticker"`
	Strategy    Strategy  `json:"strategy"`
	WinRate     float64   `json:"win_rate"`     // 0 ~ 100
	TotalReturn float64   `json:"total_return"` // %, signed
	SharpeRatio float64   `json:"sharpe_ratio"`
	MaxDrawdown float64   `json:"max_drawdown"` // %, positive magnitude
	TotalTrades int       `json:"total_trades"`
	EquityCurve []float64 `json:"equity_curve"` // cumulative return %
	Dates       []string  `json:"dates"`
}
