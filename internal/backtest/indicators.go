package backtest

import "math"

// =============================================================================
// Indicators (rolling window, NaN during warm-up)
// =============================================================================

// SMA simple moving average over window n
func SMA(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	if n <= 0 {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// RollingStd sample standard deviation (ddof=1) over window n
func RollingStd(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	if n <= 1 {
		return out
	}

	for i := n - 1; i < len(values); i++ {
		window := values[i-n+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(n)

		variance := 0.0
		for _, v := range window {
			d := v - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(n-1))
	}
	return out
}

// RSI relative strength index from rolling mean gains/losses
// RSI = 100 - 100/(1+RS), RS = avgGain/avgLoss
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	// index 0 은 delta 없음 → gain/loss 0 으로 창에 포함, 첫 유효 RSI 는 index period-1
	for i := period - 1; i < len(closes); i++ {
		avgGain, avgLoss := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)

		switch {
		case avgGain == 0 && avgLoss == 0:
			// flat window, undefined
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// Bands holds Bollinger band series
type Bands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Bollinger bands: SMA(n) ± k·std(n)
func Bollinger(closes []float64, n int, k float64) Bands {
	mid := SMA(closes, n)
	std := RollingStd(closes, n)

	b := Bands{
		Middle: mid,
		Upper:  nanSlice(len(closes)),
		Lower:  nanSlice(len(closes)),
	}
	for i := range closes {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		b.Upper[i] = mid[i] + k*std[i]
		b.Lower[i] = mid[i] - k*std[i]
	}
	return b
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
