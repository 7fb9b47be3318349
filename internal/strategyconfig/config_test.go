package strategyconfig

import (
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

func TestLoad(t *testing.T) {
	path := "../../config/analysis/default.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Meta.ProfileID != "default" {
		t.Errorf("expected profile_id=default, got %s", cfg.Meta.ProfileID)
	}

	// 파일 = 기본값
	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	defaultHash, _ := Hash(Default())
	if hash != defaultHash {
		t.Error("default.yaml drifted from Default()")
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	t.Logf("config hash: %s", hash)
	t.Logf("yaml size: %d bytes", len(yamlData))
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("analysis:\n  strategy: bollinger\nrisk:\n  max_volatility: 35\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Analysis.Strategy != "bollinger" {
		t.Errorf("strategy = %s", cfg.Analysis.Strategy)
	}
	if cfg.Risk.MaxVolatility != 35 || cfg.Risk.MaxDrawdown != 20 {
		t.Errorf("risk = %+v", cfg.Risk)
	}
	if cfg.Analysis.LookbackDays != 365 {
		t.Errorf("lookback_days = %d, want default 365", cfg.Analysis.LookbackDays)
	}

	opts := cfg.EngineOptions(5*time.Second, 2)
	if opts.Strategy != contracts.StrategyBollinger {
		t.Errorf("engine strategy = %s", opts.Strategy)
	}
	if opts.ProviderTimeout != 5*time.Second || opts.ProviderRate != 2 {
		t.Errorf("process limits not applied: %+v", opts)
	}
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("analysis:\n  stratgy: RSI\n"))
	if err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"default ok", func(c *Config) {}, ""},
		{"missing id", func(c *Config) { c.Meta.ProfileID = "" }, "meta.profile_id"},
		{"bad strategy", func(c *Config) { c.Analysis.Strategy = "MACD" }, "analysis.strategy"},
		{"zero lookback", func(c *Config) { c.Analysis.LookbackDays = 0 }, "analysis.lookback_days"},
		{"zero news", func(c *Config) { c.Analysis.NewsLimit = 0 }, "analysis.news_limit"},
		{"no cash", func(c *Config) { c.Backtest.InitialCash = 0 }, "backtest.initial_cash"},
		{"negative fee", func(c *Config) { c.Backtest.Commission = -0.001 }, "backtest.commission"},
		{"huge slippage", func(c *Config) { c.Backtest.Slippage = 0.5 }, "backtest.slippage"},
		{"no capital", func(c *Config) { c.Position.PlannedCapital = -1 }, "position.planned_capital"},
		{"stop loss 100", func(c *Config) { c.Position.StopLossPct = 100 }, "position.stop_loss_pct"},
		{"no take profit", func(c *Config) { c.Position.TakeProfitPct = 0 }, "position.take_profit_pct"},
		{"no vol limit", func(c *Config) { c.Risk.MaxVolatility = 0 }, "risk.max_volatility"},
		{"dd over 100", func(c *Config) { c.Risk.MaxDrawdown = 120 }, "risk.max_drawdown"},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"NaN cash", func(c *Config) { c.Backtest.InitialCash = math.NaN() }, "backtest.initial_cash"},
		{"NaN fee", func(c *Config) { c.Backtest.Commission = math.NaN() }, "backtest.commission"},
		{"NaN capital", func(c *Config) { c.Position.PlannedCapital = math.NaN() }, "position.planned_capital"},
		{"infinite capital", func(c *Config) { c.Position.PlannedCapital = math.Inf(1) }, "position.planned_capital"},
		{"NaN stop loss", func(c *Config) { c.Position.StopLossPct = math.NaN() }, "position.stop_loss_pct"},
		{"infinite take profit", func(c *Config) { c.Position.TakeProfitPct = math.Inf(1) }, "position.take_profit_pct"},
		{"NaN vol limit", func(c *Config) { c.Risk.MaxVolatility = math.NaN() }, "risk.max_volatility"},
		{"infinite vol limit", func(c *Config) { c.Risk.MaxVolatility = math.Inf(1) }, "risk.max_volatility"},
		{"NaN dd limit", func(c *Config) { c.Risk.MaxDrawdown = math.NaN() }, "risk.max_drawdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)

			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %s, want %s", ve.Field, tt.field)
			}
			if !errors.Is(err, contracts.ErrConfiguration) {
				t.Error("validation error should classify as configuration error")
			}
		})
	}
}

func TestWarn(t *testing.T) {
	if w := Warn(Default()); len(w) != 0 {
		t.Errorf("default profile warnings: %+v", w)
	}

	cfg := Default()
	cfg.Analysis.LookbackDays = 30
	cfg.Position.StopLossPct = 10
	cfg.Position.TakeProfitPct = 5
	cfg.Backtest.Commission = 0.008
	cfg.Backtest.Slippage = 0.005

	codes := map[string]bool{}
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}
	for _, want := range []string{"SHORT_LOOKBACK", "PAYOFF_BELOW_ONE", "HIGH_COSTS"} {
		if !codes[want] {
			t.Errorf("missing warning %s", want)
		}
	}
}

func TestHash_ChangesWithContent(t *testing.T) {
	a, _ := Hash(Default())
	cfg := Default()
	cfg.Risk.MaxDrawdown = 25
	b, _ := Hash(cfg)

	if a == b {
		t.Error("different profiles produced the same hash")
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()

	if th := cfg.Thresholds(); th.MaxVolatility != 50 || th.MaxDrawdown != 20 {
		t.Errorf("thresholds = %+v", th)
	}
	if bt := cfg.BacktestConfig(); bt.InitialCash != 100000 || bt.Commission != 0.001 || bt.Slippage != 0.001 {
		t.Errorf("backtest config = %+v", bt)
	}
	opts := cfg.EngineOptions(0, 0)
	if opts.Workers != 4 || opts.NewsLimit != 10 || opts.StopLossPct != 5 || opts.TakeProfitPct != 15 {
		t.Errorf("engine options = %+v", opts)
	}
}
