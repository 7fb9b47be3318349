package contracts

import (
	"sort"
	"time"
)

// PriceBar is one daily OHLCV bar
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is a daily bar history for one ticker
// ⭐ SSOT: 백테스트/스냅샷 모두 이 타입을 입력으로 사용
type PriceSeries []PriceBar

// Len returns the number of bars
func (s PriceSeries) Len() int {
	return len(s)
}

// Sorted returns a copy ordered by date ascending
func (s PriceSeries) Sorted() PriceSeries {
	out := make(PriceSeries, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Closes returns the close prices in series order
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}
	return closes
}

// MarketSnapshot holds the derived statistics of one analysis request
// Produced once by the market data provider and never mutated afterwards.
type MarketSnapshot struct {
	Ticker       string  `json:"ticker"`
	CurrentPrice float64 `json:"current_price"`
	ChangePct    float64 `json:"change_pct"`
	Volatility   float64 `json:"volatility"`   // 연환산 %
	MaxDrawdown  float64 `json:"max_drawdown"` // signed, <= 0
	PeriodHigh   float64 `json:"period_high"`
	PeriodLow    float64 `json:"period_low"`
	AvgVolume    float64 `json:"avg_volume"`
	DateRange    string  `json:"date_range"`
	DataCount    int     `json:"data_count"`
}

// DrawdownMagnitude returns max drawdown as a positive number
func (m *MarketSnapshot) DrawdownMagnitude() float64 {
	if m.MaxDrawdown < 0 {
		return -m.MaxDrawdown
	}
	return m.MaxDrawdown
}

// DefaultNewsSource is used when a news row carries no source
const DefaultNewsSource = "未知来源"

// NewsItem is one headline handed to the sentiment scorer
type NewsItem struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishTime time.Time `json:"publish_time"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
}

// Text returns title and content concatenated for keyword scanning
func (n NewsItem) Text() string {
	return n.Title + n.Content
}
