package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

var nan = math.NaN()

func indexes(flags []bool) []int {
	out := []int{}
	for i, f := range flags {
		if f {
			out = append(out, i)
		}
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, []float64{2, 3, 4}, got[2:])
}

func TestRollingStd(t *testing.T) {
	got := RollingStd([]float64{1, 2, 3, 4}, 2)

	assert.True(t, math.IsNaN(got[0]))
	for _, v := range got[1:] {
		assert.InDelta(t, math.Sqrt(0.5), v, 1e-12)
	}
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	alternating := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(10 + i)
		alternating[i] = 10 + float64(i%2)
	}

	up := RSI(rising, 14)
	assert.True(t, math.IsNaN(up[12]))
	assert.Equal(t, 100.0, up[13], "first window counts bar 0 as a zero delta")

	mixed := RSI(alternating, 14)
	// idx13 창: 상승 7, 하락 6, bar 0 은 0
	assert.InDelta(t, 100-600.0/13, mixed[13], 1e-9)
	assert.InDelta(t, 50.0, mixed[19], 1e-9)

	assert.True(t, math.IsNaN(RSI(rising[:13], 14)[12]))
	assert.Equal(t, 100.0, RSI(rising[:14], 14)[13])

	flatRSI := RSI(flat(20, 10), 14)
	assert.True(t, math.IsNaN(flatRSI[19]))
}

func TestBollinger(t *testing.T) {
	closes := []float64{1, 2, 3, 4}
	b := Bollinger(closes, 2, 2)

	assert.True(t, math.IsNaN(b.Upper[0]))
	assert.InDelta(t, 1.5+2*math.Sqrt(0.5), b.Upper[1], 1e-12)
	assert.InDelta(t, 3.5-2*math.Sqrt(0.5), b.Lower[3], 1e-12)
}

func TestRSISignals_EdgeTriggered(t *testing.T) {
	rsi := []float64{nan, 45, 35, 25, 24, 50, 65, 75, 80, 38, 38}

	s := rsiSignals(rsi)

	assert.Equal(t, []int{2, 3, 9}, indexes(s.Entries))
	assert.Equal(t, []int{6, 7}, indexes(s.Exits))
}

func TestMASignals(t *testing.T) {
	fast := []float64{nan, 9, 10, 11, 12, 11, 9, 8}
	slow := []float64{nan, 10, 10, 10, 10, 10, 10, 10}

	s := maSignals(fast, slow)

	assert.Equal(t, []int{3}, indexes(s.Entries), "golden cross from <= to >")
	assert.Equal(t, []int{6}, indexes(s.Exits), "death cross from >= to <")
}

func TestBollingerSignals(t *testing.T) {
	b := Bands{
		Lower: []float64{nan, 10, 10, 10, 10, 10, 10},
		Upper: []float64{nan, 20, 20, 20, 20, 20, 20},
	}
	closes := []float64{15, 15, 9, 11, 15, 21, 19}

	s := bollingerSignals(closes, b)

	// idx2: breach from above, idx3: re-enter from below
	assert.Equal(t, []int{2, 3}, indexes(s.Entries))
	// idx5: breach upper from below, idx6: re-enter from above
	assert.Equal(t, []int{5, 6}, indexes(s.Exits))
}

func TestGenerateSignals(t *testing.T) {
	closes := valleyThenPeak()

	for _, st := range contracts.AllStrategies() {
		s, err := GenerateSignals(st, closes)
		require.NoError(t, err)
		assert.Len(t, s.Entries, len(closes))
		assert.Len(t, s.Exits, len(closes))
	}

	_, err := GenerateSignals("KDJ", closes)
	assert.ErrorIs(t, err, contracts.ErrInvalidStrategy)
}
