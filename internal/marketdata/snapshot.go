package marketdata

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

// TradingDaysPerYear annualizes daily volatility
const TradingDaysPerYear = 252

const dateLayout = "2006-01-02"

// BuildSnapshot derives the snapshot statistics from daily bars
// ⭐ SSOT: MarketSnapshot 계산은 여기서만
func BuildSnapshot(ticker string, series contracts.PriceSeries) (*contracts.MarketSnapshot, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("no price bars for %s: %w", ticker, contracts.ErrDataUnavailable)
	}

	bars := series.Sorted()
	closes := bars.Closes()
	last := bars[len(bars)-1]

	snap := &contracts.MarketSnapshot{
		Ticker:       contracts.NormalizeTicker(ticker),
		CurrentPrice: round2(last.Close),
		DateRange:    fmt.Sprintf("%s 至 %s", bars[0].Date.Format(dateLayout), last.Date.Format(dateLayout)),
		DataCount:    len(bars),
	}

	if len(closes) > 1 {
		prev := closes[len(closes)-2]
		if prev != 0 {
			snap.ChangePct = round2((last.Close/prev - 1) * 100)
		}
	}

	returns := dailyReturns(closes)
	snap.Volatility = round2(sampleStd(returns) * math.Sqrt(TradingDaysPerYear) * 100)
	snap.MaxDrawdown = round2(maxDrawdown(returns) * 100)

	high, low := bars[0].High, bars[0].Low
	var volume float64
	for _, bar := range bars {
		high = math.Max(high, bar.High)
		low = math.Min(low, bar.Low)
		volume += bar.Volume
	}
	snap.PeriodHigh = round2(high)
	snap.PeriodLow = round2(low)
	snap.AvgVolume = roundTo(volume/float64(len(bars)), 0) // 주 단위

	return snap, nil
}

// dailyReturns close-to-close, first bar dropped
func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// sampleStd ddof=1, 0 when undefined
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// maxDrawdown of the compounded return path, <= 0
func maxDrawdown(returns []float64) float64 {
	cum, peak, worst := 1.0, math.Inf(-1), 0.0
	for _, r := range returns {
		cum *= 1 + r
		peak = math.Max(peak, cum)
		if dd := cum/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

func round2(v float64) float64 {
	return roundTo(v, 2)
}

func roundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
