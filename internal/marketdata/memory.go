package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

// Source is everything the analysis pipeline reads
type Source interface {
	contracts.MarketDataProvider
	contracts.PriceHistoryProvider
	contracts.NewsProvider
	contracts.NameSource
}

// Writer stores market data
type Writer interface {
	SaveBars(ctx context.Context, ticker string, bars contracts.PriceSeries) error
	SaveNews(ctx context.Context, ticker string, items []contracts.NewsItem) error
	SaveName(ctx context.Context, ticker, name string) error
}

// MemoryProvider keeps market data in process
// lookback 은 마지막 bar 날짜 기준 (재현 가능한 결과)
type MemoryProvider struct {
	mu    sync.RWMutex
	bars  map[string]contracts.PriceSeries
	news  map[string][]contracts.NewsItem
	names map[string]string
}

// NewMemoryProvider creates an empty provider
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		bars:  make(map[string]contracts.PriceSeries),
		news:  make(map[string][]contracts.NewsItem),
		names: make(map[string]string),
	}
}

// FetchHistory returns bars within lookbackDays of the newest bar
func (p *MemoryProvider) FetchHistory(_ context.Context, ticker string, lookbackDays int) (contracts.PriceSeries, error) {
	ticker = contracts.NormalizeTicker(ticker)

	p.mu.RLock()
	series := p.bars[ticker]
	p.mu.RUnlock()

	if len(series) == 0 {
		return nil, fmt.Errorf("no prices for %s: %w", ticker, contracts.ErrDataUnavailable)
	}

	if lookbackDays <= 0 {
		return series.Sorted(), nil
	}

	cutoff := series[len(series)-1].Date.AddDate(0, 0, -lookbackDays)
	out := make(contracts.PriceSeries, 0, len(series))
	for _, b := range series {
		if !b.Date.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out, nil
}

// FetchSnapshot builds the snapshot from the stored bars
func (p *MemoryProvider) FetchSnapshot(ctx context.Context, ticker string, lookbackDays int) (*contracts.MarketSnapshot, error) {
	series, err := p.FetchHistory(ctx, ticker, lookbackDays)
	if err != nil {
		return nil, err
	}
	return BuildSnapshot(ticker, series)
}

// FetchNews returns the newest limit items
func (p *MemoryProvider) FetchNews(_ context.Context, ticker string, limit int) ([]contracts.NewsItem, error) {
	ticker = contracts.NormalizeTicker(ticker)

	p.mu.RLock()
	items := p.news[ticker]
	p.mu.RUnlock()

	if len(items) == 0 {
		return nil, fmt.Errorf("no news for %s: %w", ticker, contracts.ErrDataUnavailable)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	out := make([]contracts.NewsItem, len(items))
	copy(out, items)
	return out, nil
}

// LookupName returns the stored display name
func (p *MemoryProvider) LookupName(_ context.Context, ticker string) (string, error) {
	ticker = contracts.NormalizeTicker(ticker)

	p.mu.RLock()
	defer p.mu.RUnlock()

	name, ok := p.names[ticker]
	if !ok {
		return "", fmt.Errorf("unknown ticker %s: %w", ticker, contracts.ErrDataUnavailable)
	}
	return name, nil
}

// SaveBars merges bars by date
func (p *MemoryProvider) SaveBars(_ context.Context, ticker string, bars contracts.PriceSeries) error {
	ticker = contracts.NormalizeTicker(ticker)

	p.mu.Lock()
	defer p.mu.Unlock()

	byDate := make(map[string]contracts.PriceBar, len(p.bars[ticker])+len(bars))
	for _, b := range p.bars[ticker] {
		byDate[b.Date.Format(dateLayout)] = b
	}
	for _, b := range bars {
		byDate[b.Date.Format(dateLayout)] = b
	}

	merged := make(contracts.PriceSeries, 0, len(byDate))
	for _, b := range byDate {
		merged = append(merged, b)
	}
	p.bars[ticker] = merged.Sorted()
	return nil
}

// SaveNews adds items, newest first
func (p *MemoryProvider) SaveNews(_ context.Context, ticker string, items []contracts.NewsItem) error {
	ticker = contracts.NormalizeTicker(ticker)

	p.mu.Lock()
	defer p.mu.Unlock()

	all := append(p.news[ticker], items...)
	cleaned := make([]contracts.NewsItem, len(all))
	for i, n := range all {
		cleaned[i] = CleanNews(n)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].PublishTime.After(cleaned[j].PublishTime)
	})
	p.news[ticker] = cleaned
	return nil
}

// SaveName stores the display name
func (p *MemoryProvider) SaveName(_ context.Context, ticker, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names[contracts.NormalizeTicker(ticker)] = name
	return nil
}

// Fixture is the JSON layout accepted by LoadFixture and Import
type Fixture map[string]FixtureEntry

// FixtureEntry holds one ticker's data
type FixtureEntry struct {
	Name string                `json:"name"`
	Bars contracts.PriceSeries `json:"bars"`
	News []contracts.NewsItem  `json:"news"`
}

// ReadFixture decodes a fixture file
func ReadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return fx, nil
}

// Import writes every fixture entry through w, tickers in sorted order
func Import(ctx context.Context, w Writer, fx Fixture) (int, error) {
	tickers := make([]string, 0, len(fx))
	for t := range fx {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	for _, t := range tickers {
		entry := fx[t]
		if entry.Name != "" {
			if err := w.SaveName(ctx, t, entry.Name); err != nil {
				return 0, err
			}
		}
		if err := w.SaveBars(ctx, t, entry.Bars); err != nil {
			return 0, err
		}
		if err := w.SaveNews(ctx, t, entry.News); err != nil {
			return 0, err
		}
	}
	return len(tickers), nil
}
