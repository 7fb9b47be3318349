package backtest

import (
	"fmt"
	"math"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

// Strategy parameters
const (
	RSIPeriod = 14

	MAFast = 5
	MASlow = 20

	BollingerPeriod = 20
	BollingerK      = 2.0
)

// RSI cross levels: entries on downward crosses, exits on upward crosses
var (
	rsiEntryLevels = []float64{40, 30}
	rsiExitLevels  = []float64{60, 70}
)

// Signals holds per-bar entry/exit flags
// Edge-triggered: a flag is set only on the bar where the condition starts.
type Signals struct {
	Entries []bool
	Exits   []bool
}

// GenerateSignals builds the signals of strategy over closes
func GenerateSignals(strategy contracts.Strategy, closes []float64) (Signals, error) {
	switch strategy {
	case contracts.StrategyRSI:
		return rsiSignals(RSI(closes, RSIPeriod)), nil
	case contracts.StrategyMA:
		return maSignals(SMA(closes, MAFast), SMA(closes, MASlow)), nil
	case contracts.StrategyBollinger:
		return bollingerSignals(closes, Bollinger(closes, BollingerPeriod, BollingerK)), nil
	default:
		return Signals{}, fmt.Errorf("%w: %q", contracts.ErrInvalidStrategy, strategy)
	}
}

func newSignals(n int) Signals {
	return Signals{
		Entries: make([]bool, n),
		Exits:   make([]bool, n),
	}
}

// rsiSignals: entry when RSI crosses down through 40 or 30,
// exit when it crosses up through 60 or 70
func rsiSignals(rsi []float64) Signals {
	s := newSignals(len(rsi))
	for i := 1; i < len(rsi); i++ {
		prev, cur := rsi[i-1], rsi[i]
		if math.IsNaN(prev) || math.IsNaN(cur) {
			continue
		}
		for _, level := range rsiEntryLevels {
			if prev >= level && cur < level {
				s.Entries[i] = true
			}
		}
		for _, level := range rsiExitLevels {
			if prev <= level && cur > level {
				s.Exits[i] = true
			}
		}
	}
	return s
}

// maSignals: golden cross entry, death cross exit
func maSignals(fast, slow []float64) Signals {
	s := newSignals(len(fast))
	for i := 1; i < len(fast); i++ {
		if anyNaN(fast[i-1], slow[i-1], fast[i], slow[i]) {
			continue
		}
		s.Entries[i] = fast[i-1] <= slow[i-1] && fast[i] > slow[i]
		s.Exits[i] = fast[i-1] >= slow[i-1] && fast[i] < slow[i]
	}
	return s
}

// bollingerSignals: entry when price comes back above the lower band from
// below, or reaches the lower band from above; exit mirrors at the upper band
func bollingerSignals(closes []float64, b Bands) Signals {
	s := newSignals(len(closes))
	for i := 1; i < len(closes); i++ {
		if anyNaN(b.Lower[i-1], b.Lower[i], b.Upper[i-1], b.Upper[i]) {
			continue
		}
		prev, cur := closes[i-1], closes[i]

		reenterFromBelow := prev < b.Lower[i-1] && cur >= b.Lower[i]
		touchLowerFromAbove := prev > b.Lower[i-1] && cur <= b.Lower[i]
		s.Entries[i] = reenterFromBelow || touchLowerFromAbove

		reenterFromAbove := prev > b.Upper[i-1] && cur <= b.Upper[i]
		touchUpperFromBelow := prev < b.Upper[i-1] && cur >= b.Upper[i]
		s.Exits[i] = reenterFromAbove || touchUpperFromBelow
	}
	return s
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
