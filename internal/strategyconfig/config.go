package strategyconfig

import (
	"time"

	"github.com/Howie-Waves/StockMate/internal/backtest"
	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/decision"
	"github.com/Howie-Waves/StockMate/internal/risk"
)

// Config는 분석 프로파일 전체 설정
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Analysis Analysis `yaml:"analysis" json:"analysis"`
	Backtest Backtest `yaml:"backtest" json:"backtest"`
	Position Position `yaml:"position" json:"position"`
	Risk     Risk     `yaml:"risk" json:"risk"`
	Batch    Batch    `yaml:"batch" json:"batch"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// Analysis 파이프라인 입력 범위
type Analysis struct {
	Strategy     string `yaml:"strategy" json:"strategy"` // RSI | MA | Bollinger
	LookbackDays int    `yaml:"lookback_days" json:"lookback_days"`
	NewsLimit    int    `yaml:"news_limit" json:"news_limit"`
}

// Backtest 시뮬레이터 비용
type Backtest struct {
	InitialCash float64 `yaml:"initial_cash" json:"initial_cash"`
	Commission  float64 `yaml:"commission" json:"commission"` // 0.001 = 0.1%
	Slippage    float64 `yaml:"slippage" json:"slippage"`
}

// Position Kelly 사이징 입력
type Position struct {
	PlannedCapital float64 `yaml:"planned_capital" json:"planned_capital"`
	StopLossPct    float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	TakeProfitPct  float64 `yaml:"take_profit_pct" json:"take_profit_pct"`
}

// Risk 게이트 한도 (%)
type Risk struct {
	MaxVolatility float64 `yaml:"max_volatility" json:"max_volatility"`
	MaxDrawdown   float64 `yaml:"max_drawdown" json:"max_drawdown"`
}

// Batch 동시 분석 설정
type Batch struct {
	Workers int `yaml:"workers" json:"workers"`
}

// Default returns the reference profile
func Default() *Config {
	th := risk.DefaultThresholds()
	bt := backtest.DefaultConfig()
	opts := decision.DefaultOptions()

	return &Config{
		Meta: Meta{ProfileID: "default", Version: "1"},
		Analysis: Analysis{
			Strategy:     string(opts.Strategy),
			LookbackDays: opts.LookbackDays,
			NewsLimit:    opts.NewsLimit,
		},
		Backtest: Backtest{
			InitialCash: bt.InitialCash,
			Commission:  bt.Commission,
			Slippage:    bt.Slippage,
		},
		Position: Position{
			PlannedCapital: opts.PlannedCapital,
			StopLossPct:    opts.StopLossPct,
			TakeProfitPct:  opts.TakeProfitPct,
		},
		Risk: Risk{
			MaxVolatility: th.MaxVolatility,
			MaxDrawdown:   th.MaxDrawdown,
		},
		Batch: Batch{Workers: opts.Workers},
	}
}

// Thresholds converts the risk section
func (c *Config) Thresholds() risk.Thresholds {
	return risk.Thresholds{
		MaxVolatility: c.Risk.MaxVolatility,
		MaxDrawdown:   c.Risk.MaxDrawdown,
	}
}

// BacktestConfig converts the backtest section
func (c *Config) BacktestConfig() backtest.Config {
	return backtest.Config{
		InitialCash: c.Backtest.InitialCash,
		Commission:  c.Backtest.Commission,
		Slippage:    c.Backtest.Slippage,
	}
}

// EngineOptions converts the profile plus process-level limits
// Strategy must already be validated.
func (c *Config) EngineOptions(providerTimeout time.Duration, providerRate float64) decision.Options {
	strategy, _ := contracts.ParseStrategy(c.Analysis.Strategy)

	return decision.Options{
		Strategy:        strategy,
		LookbackDays:    c.Analysis.LookbackDays,
		NewsLimit:       c.Analysis.NewsLimit,
		InitialCash:     c.Backtest.InitialCash,
		PlannedCapital:  c.Position.PlannedCapital,
		StopLossPct:     c.Position.StopLossPct,
		TakeProfitPct:   c.Position.TakeProfitPct,
		ProviderTimeout: providerTimeout,
		Workers:         c.Batch.Workers,
		ProviderRate:    providerRate,
	}
}
