package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// MinBars is the shortest history a backtest accepts
const MinBars = 50

// tradingDaysPerYear scales daily Sharpe
const tradingDaysPerYear = 252

// Config holds backtest configuration
type Config struct {
	InitialCash float64
	Commission  float64 // 0.001 = 0.1%
	Slippage    float64 // 0.001 = 0.1%
}

// DefaultConfig 기본값: 초기자금 100000, 수수료/슬리피지 0.1%
func DefaultConfig() Config {
	return Config{
		InitialCash: 100000,
		Commission:  0.001,
		Slippage:    0.001,
	}
}

// Request is one backtest call
type Request struct {
	Ticker      string
	Series      contracts.PriceSeries
	Strategy    contracts.Strategy
	InitialCash float64 // 0 → Config.InitialCash
}

// Runner runs strategy backtests over daily bars
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Runner struct {
	config Config
	logger *logger.Logger
}

// NewRunner creates a backtest runner
func NewRunner(config Config, logger *logger.Logger) *Runner {
	return &Runner{
		config: config,
		logger: logger,
	}
}

// Config returns the runner configuration
func (r *Runner) Config() Config {
	return r.config
}

// Run executes a backtest. Output is fully determined by the request.
func (r *Runner) Run(ctx context.Context, req Request) (*contracts.BacktestMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cash := req.InitialCash
	if cash == 0 {
		cash = r.config.InitialCash
	}
	if cash <= 0 {
		return nil, fmt.Errorf("%w: initial cash must be > 0, got %.2f", contracts.ErrConfiguration, cash)
	}

	series := req.Series.Sorted()
	closes := series.Closes()

	signals, err := GenerateSignals(req.Strategy, closes)
	if err != nil {
		return nil, err
	}

	if len(series) < MinBars {
		return nil, fmt.Errorf("%w: got %d bars, need %d", contracts.ErrInsufficientHistory, len(series), MinBars)
	}

	log := r.logger.WithTicker(req.Ticker)
	log.WithFields(map[string]interface{}{
		"strategy":     req.Strategy,
		"bars":         len(series),
		"initial_cash": cash,
		"commission":   r.config.Commission,
		"slippage":     r.config.Slippage,
	}).Debug("Starting backtest")

	startTime := time.Now()

	sim := NewSimulator(r.config.Commission, r.config.Slippage)
	sim.Initialize(cash)

	equity := make([]float64, len(series))
	for i, bar := range series {
		switch {
		case sim.InPosition() && signals.Exits[i]:
			sim.Sell(bar.Date, bar.Close)
		case !sim.InPosition() && signals.Entries[i] && !signals.Exits[i]:
			sim.Buy(bar.Date, bar.Close)
		}
		equity[i] = sim.Equity(bar.Close)
	}

	metrics := r.calculateMetrics(req, series, equity, cash, sim.GetStats())

	log.WithFields(map[string]interface{}{
		"strategy":     req.Strategy,
		"duration_ms":  time.Since(startTime).Milliseconds(),
		"total_return": metrics.TotalReturn,
		"win_rate":     metrics.WinRate,
		"sharpe_ratio": metrics.SharpeRatio,
		"max_drawdown": metrics.MaxDrawdown,
		"trades":       metrics.TotalTrades,
	}).Info("Backtest completed")

	return metrics, nil
}

// calculateMetrics derives the report metrics from the equity curve
func (r *Runner) calculateMetrics(
	req Request,
	series contracts.PriceSeries,
	equity []float64,
	initialCash float64,
	stats Stats,
) *contracts.BacktestMetrics {
	m := &contracts.BacktestMetrics{
		Ticker:      req.Ticker,
		Strategy:    req.Strategy,
		TotalTrades: stats.TotalTrades,
		EquityCurve: make([]float64, len(equity)),
		Dates:       make([]string, len(series)),
	}

	for i, e := range equity {
		m.EquityCurve[i] = round((e/initialCash-1)*100, 4)
		m.Dates[i] = series[i].Date.Format("2006-01-02")
	}

	final := equity[len(equity)-1]
	m.TotalReturn = round((final/initialCash-1)*100, 2)

	dailyReturns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		dailyReturns = append(dailyReturns, equity[i]/equity[i-1]-1)
	}
	m.SharpeRatio = round(sharpeRatio(dailyReturns), 2)
	m.MaxDrawdown = round(maxDrawdown(equity)*100, 2)

	if stats.TotalTrades > 0 {
		m.WinRate = round(float64(stats.WinningTrades)/float64(stats.TotalTrades)*100, 2)
	}

	return m
}

// sharpeRatio mean/std of daily returns scaled by √252; 0 when undefined
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(returns)-1))

	sharpe := mean / std * math.Sqrt(tradingDaysPerYear)
	if std == 0 || math.IsNaN(sharpe) || math.IsInf(sharpe, 0) {
		return 0
	}
	return sharpe
}

// maxDrawdown largest peak-to-trough decline as a positive fraction
func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	worst := 0.0
	peak := equity[0]
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - e) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
