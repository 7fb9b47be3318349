package backtest

import "time"

// Simulator is a long-only, single-position trade simulator at daily closes
// ⭐ SSOT: 백테스팅 체결 시뮬레이션은 여기서만
type Simulator struct {
	commission float64 // 수수료율 (0.001 = 0.1%)
	slippage   float64 // 슬리피지율

	cash     float64
	position *Position
	trades   []Trade

	totalCommission float64
	totalSlippage   float64
}

// Position is the open long position
type Position struct {
	EntryDate  time.Time
	EntryPrice float64 // slippage applied
	Shares     float64
	CostBasis  float64 // including commission
}

// Trade is a closed round trip
type Trade struct {
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	Shares     float64
	Commission float64
	PnL        float64
	ReturnPct  float64
}

// Stats holds simulation statistics
type Stats struct {
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	TotalCommission float64
	TotalSlippage   float64
}

// NewSimulator creates a simulator with proportional fee and slippage rates
func NewSimulator(commission, slippage float64) *Simulator {
	return &Simulator{
		commission: commission,
		slippage:   slippage,
	}
}

// Initialize resets state with the starting cash
func (s *Simulator) Initialize(cash float64) {
	s.cash = cash
	s.position = nil
	s.trades = make([]Trade, 0)
	s.totalCommission = 0
	s.totalSlippage = 0
}

// InPosition reports whether a position is open
func (s *Simulator) InPosition() bool {
	return s.position != nil
}

// Buy opens a position with all cash. Ignored while a position is open.
func (s *Simulator) Buy(date time.Time, price float64) bool {
	if s.position != nil || s.cash <= 0 || price <= 0 {
		return false
	}

	execPrice := price * (1.0 + s.slippage)
	cost := s.cash
	shares := cost / (execPrice * (1.0 + s.commission))
	commission := cost - shares*execPrice

	s.cash = 0
	s.position = &Position{
		EntryDate:  date,
		EntryPrice: execPrice,
		Shares:     shares,
		CostBasis:  cost,
	}
	s.totalCommission += commission
	s.totalSlippage += (execPrice - price) * shares

	return true
}

// Sell closes the open position. Ignored when flat.
func (s *Simulator) Sell(date time.Time, price float64) (Trade, bool) {
	pos := s.position
	if pos == nil {
		return Trade{}, false
	}

	execPrice := price * (1.0 - s.slippage)
	proceeds := pos.Shares * execPrice
	commission := proceeds * s.commission
	net := proceeds - commission
	pnl := net - pos.CostBasis

	trade := Trade{
		EntryDate:  pos.EntryDate,
		ExitDate:   date,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  execPrice,
		Shares:     pos.Shares,
		Commission: commission + (pos.CostBasis - pos.Shares*pos.EntryPrice),
		PnL:        pnl,
		ReturnPct:  pnl / pos.CostBasis,
	}

	s.cash += net
	s.position = nil
	s.trades = append(s.trades, trade)
	s.totalCommission += commission
	s.totalSlippage += (price - execPrice) * pos.Shares

	return trade, true
}

// Equity marks the open position to price
func (s *Simulator) Equity(price float64) float64 {
	if s.position == nil {
		return s.cash
	}
	return s.cash + s.position.Shares*price
}

// Trades returns the closed trades
func (s *Simulator) Trades() []Trade {
	return s.trades
}

// GetStats returns simulation statistics over closed trades
func (s *Simulator) GetStats() Stats {
	stats := Stats{
		TotalTrades:     len(s.trades),
		TotalCommission: s.totalCommission,
		TotalSlippage:   s.totalSlippage,
	}
	for _, t := range s.trades {
		if t.PnL > 0 {
			stats.WinningTrades++
		} else if t.PnL < 0 {
			stats.LosingTrades++
		}
	}
	return stats
}
