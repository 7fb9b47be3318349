package strategyconfig

import (
	"fmt"
	"math"

	"github.com/Howie-Waves/StockMate/internal/backtest"
	"github.com/Howie-Waves/StockMate/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap classifies every profile error as a configuration error
func (e ValidationError) Unwrap() error {
	return contracts.ErrConfiguration
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// minLookbackDays 대략 50 거래일
const minLookbackDays = 75

// Validate checks all required constraints, first failure wins
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	// === Analysis ===
	if _, err := contracts.ParseStrategy(cfg.Analysis.Strategy); err != nil {
		return ValidationError{"analysis.strategy", "must be one of RSI, MA, Bollinger"}
	}
	if cfg.Analysis.LookbackDays <= 0 || cfg.Analysis.LookbackDays > 3650 {
		return ValidationError{"analysis.lookback_days", "must be in (0, 3650]"}
	}
	if cfg.Analysis.NewsLimit <= 0 || cfg.Analysis.NewsLimit > 100 {
		return ValidationError{"analysis.news_limit", "must be in (0, 100]"}
	}

	// === Backtest ===
	if !finite(cfg.Backtest.InitialCash) || cfg.Backtest.InitialCash <= 0 {
		return ValidationError{"backtest.initial_cash", "must be > 0"}
	}
	if err := validateRate(cfg.Backtest.Commission); err != nil {
		return ValidationError{"backtest.commission", err.Error()}
	}
	if err := validateRate(cfg.Backtest.Slippage); err != nil {
		return ValidationError{"backtest.slippage", err.Error()}
	}

	// === Position ===
	if !finite(cfg.Position.PlannedCapital) || cfg.Position.PlannedCapital <= 0 {
		return ValidationError{"position.planned_capital", "must be > 0"}
	}
	if !finite(cfg.Position.StopLossPct) || cfg.Position.StopLossPct < 0 || cfg.Position.StopLossPct >= 100 {
		return ValidationError{"position.stop_loss_pct", "must be in [0, 100)"}
	}
	if !finite(cfg.Position.TakeProfitPct) || cfg.Position.TakeProfitPct <= 0 {
		return ValidationError{"position.take_profit_pct", "must be > 0"}
	}

	// === Risk ===
	if !finite(cfg.Risk.MaxVolatility) || cfg.Risk.MaxVolatility <= 0 {
		return ValidationError{"risk.max_volatility", "must be > 0"}
	}
	if !finite(cfg.Risk.MaxDrawdown) || cfg.Risk.MaxDrawdown <= 0 || cfg.Risk.MaxDrawdown > 100 {
		return ValidationError{"risk.max_drawdown", "must be in (0, 100]"}
	}

	// === Batch ===
	if cfg.Batch.Workers < 1 || cfg.Batch.Workers > 64 {
		return ValidationError{"batch.workers", "must be in [1, 64]"}
	}

	return nil
}

// Warn returns soft issues that do not stop the program
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Analysis.LookbackDays < minLookbackDays {
		warnings = append(warnings, Warning{
			Code:    "SHORT_LOOKBACK",
			Message: fmt.Sprintf("lookback %d days rarely yields %d bars; backtests will be skipped", cfg.Analysis.LookbackDays, backtest.MinBars),
		})
	}
	if cfg.Position.StopLossPct > 0 && cfg.Position.TakeProfitPct < cfg.Position.StopLossPct {
		warnings = append(warnings, Warning{
			Code:    "PAYOFF_BELOW_ONE",
			Message: "take_profit_pct < stop_loss_pct gives a win/loss ratio below 1",
		})
	}
	if cfg.Position.StopLossPct == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_STOP_LOSS",
			Message: "stop_loss_pct 0 falls back to a 2.0 win/loss ratio",
		})
	}
	if cfg.Backtest.Commission+cfg.Backtest.Slippage > 0.01 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_COSTS",
			Message: "commission + slippage above 1% per side",
		})
	}

	return warnings
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateRate(v float64) error {
	if !finite(v) || v < 0 || v >= 0.1 {
		return fmt.Errorf("must be in [0, 0.1)")
	}
	return nil
}
