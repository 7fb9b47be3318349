package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

func makeSeries(closes []float64) contracts.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(contracts.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = contracts.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return s
}

func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

// valleyThenPeak: 하락 30일 → 상승 30일 → 하락 30일
func valleyThenPeak() []float64 {
	closes := make([]float64, 0, 90)
	for i := 0; i < 30; i++ {
		closes = append(closes, 130-float64(i))
	}
	for i := 0; i < 30; i++ {
		closes = append(closes, 102+float64(i))
	}
	for i := 0; i < 30; i++ {
		closes = append(closes, 130-float64(i))
	}
	return closes
}

func newTestRunner(cfg Config) *Runner {
	return NewRunner(cfg, logger.Nop())
}

func TestRun_InsufficientHistory(t *testing.T) {
	r := newTestRunner(DefaultConfig())

	m, err := r.Run(context.Background(), Request{
		Ticker:   "600000",
		Series:   makeSeries(flat(40, 10)),
		Strategy: contracts.StrategyRSI,
	})

	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
	assert.Nil(t, m)
}

func TestRun_InvalidStrategy(t *testing.T) {
	r := newTestRunner(DefaultConfig())

	_, err := r.Run(context.Background(), Request{
		Ticker:   "600000",
		Series:   makeSeries(flat(60, 10)),
		Strategy: "MACD",
	})

	assert.ErrorIs(t, err, contracts.ErrInvalidStrategy)
}

func TestRun_InvalidCash(t *testing.T) {
	r := newTestRunner(DefaultConfig())

	_, err := r.Run(context.Background(), Request{
		Series:      makeSeries(flat(60, 10)),
		Strategy:    contracts.StrategyMA,
		InitialCash: -1,
	})

	assert.ErrorIs(t, err, contracts.ErrConfiguration)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner(DefaultConfig()).Run(ctx, Request{
		Series:   makeSeries(flat(60, 10)),
		Strategy: contracts.StrategyRSI,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_FlatSeriesHasNoTrades(t *testing.T) {
	r := newTestRunner(DefaultConfig())

	for _, st := range contracts.AllStrategies() {
		t.Run(string(st), func(t *testing.T) {
			m, err := r.Run(context.Background(), Request{
				Ticker:   "600000",
				Series:   makeSeries(flat(60, 10)),
				Strategy: st,
			})
			require.NoError(t, err)

			assert.Equal(t, st, m.Strategy)
			assert.Equal(t, 0, m.TotalTrades)
			assert.Equal(t, 0.0, m.WinRate)
			assert.Equal(t, 0.0, m.TotalReturn)
			assert.Equal(t, 0.0, m.SharpeRatio)
			assert.Equal(t, 0.0, m.MaxDrawdown)
			assert.Len(t, m.EquityCurve, 60)
			assert.Len(t, m.Dates, 60)
			assert.Equal(t, "2024-01-01", m.Dates[0])
		})
	}
}

func TestRun_MovingAverageRoundTrip(t *testing.T) {
	r := newTestRunner(DefaultConfig())

	m, err := r.Run(context.Background(), Request{
		Ticker:   "000001",
		Series:   makeSeries(valleyThenPeak()),
		Strategy: contracts.StrategyMA,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, m.TotalTrades)
	assert.Contains(t, []float64{0, 100}, m.WinRate)
	assert.GreaterOrEqual(t, m.MaxDrawdown, 0.0)
	assert.Len(t, m.EquityCurve, 90)
	assert.InDelta(t, m.TotalReturn, m.EquityCurve[89], 0.01)
}

func TestRun_UnsortedInputIsSorted(t *testing.T) {
	r := newTestRunner(DefaultConfig())
	series := makeSeries(valleyThenPeak())

	reversed := make(contracts.PriceSeries, len(series))
	for i := range series {
		reversed[len(series)-1-i] = series[i]
	}

	a, err := r.Run(context.Background(), Request{Series: series, Strategy: contracts.StrategyMA})
	require.NoError(t, err)
	b, err := r.Run(context.Background(), Request{Series: reversed, Strategy: contracts.StrategyMA})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRun_Deterministic(t *testing.T) {
	r := newTestRunner(DefaultConfig())
	req := Request{
		Ticker:   "600519",
		Series:   makeSeries(valleyThenPeak()),
		Strategy: contracts.StrategyBollinger,
	}

	first, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_FeesReduceReturn(t *testing.T) {
	req := Request{
		Series:   makeSeries(valleyThenPeak()),
		Strategy: contracts.StrategyMA,
	}

	free, err := newTestRunner(Config{InitialCash: 100000}).Run(context.Background(), req)
	require.NoError(t, err)
	costly, err := newTestRunner(DefaultConfig()).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Less(t, costly.TotalReturn, free.TotalReturn)
}

func TestRun_RequestCashOverridesConfig(t *testing.T) {
	r := newTestRunner(DefaultConfig())
	series := makeSeries(valleyThenPeak())

	a, err := r.Run(context.Background(), Request{Series: series, Strategy: contracts.StrategyMA})
	require.NoError(t, err)
	b, err := r.Run(context.Background(), Request{Series: series, Strategy: contracts.StrategyMA, InitialCash: 5000})
	require.NoError(t, err)

	// 수익률 지표는 초기자금과 무관
	assert.InDelta(t, a.TotalReturn, b.TotalReturn, 0.01)
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, sharpeRatio(nil))
	assert.Equal(t, 0.0, sharpeRatio([]float64{0.01}))
	assert.Equal(t, 0.0, sharpeRatio([]float64{0, 0, 0}))
	assert.Equal(t, 0.0, sharpeRatio([]float64{0.01, 0.01, 0.01}))
	assert.Greater(t, sharpeRatio([]float64{0.01, 0.02, 0.015, -0.005}), 0.0)
	assert.Less(t, sharpeRatio([]float64{-0.01, -0.02, 0.005}), 0.0)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, maxDrawdown(nil))
	assert.Equal(t, 0.0, maxDrawdown([]float64{100, 110, 120}))
	assert.InDelta(t, 0.25, maxDrawdown([]float64{100, 120, 90, 130}), 1e-12)
	assert.InDelta(t, 0.5, maxDrawdown([]float64{100, 50, 80, 60}), 1e-12)
}
