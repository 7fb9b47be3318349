package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// NameCache maps tickers to display names, populated lazily on miss
// ⭐ SSOT: 종목명 조회는 이 구조체를 통해서만
//
// Concurrent misses may both call the source; the last write wins.
type NameCache struct {
	mu     sync.RWMutex
	names  map[string]string
	source contracts.NameSource
	logger *logger.Logger
}

// NewNameCache creates a name cache backed by source
func NewNameCache(source contracts.NameSource, log *logger.Logger) *NameCache {
	return &NameCache{
		names:  make(map[string]string),
		source: source,
		logger: log,
	}
}

// Name returns the display name of ticker
func (c *NameCache) Name(ctx context.Context, ticker string) (string, error) {
	ticker = contracts.NormalizeTicker(ticker)

	c.mu.RLock()
	name, ok := c.names[ticker]
	c.mu.RUnlock()
	if ok {
		return name, nil
	}

	if c.source == nil {
		return "", fmt.Errorf("name lookup %s: %w", ticker, contracts.ErrDataUnavailable)
	}

	// lock 밖에서 조회 (느린 source 가 다른 reader 를 막지 않도록)
	name, err := c.source.LookupName(ctx, ticker)
	if err != nil {
		return "", fmt.Errorf("name lookup %s: %w", ticker, err)
	}

	c.Put(ticker, name)
	return name, nil
}

// Put stores a name, overwriting any previous value
func (c *NameCache) Put(ticker, name string) {
	ticker = contracts.NormalizeTicker(ticker)

	c.mu.Lock()
	c.names[ticker] = name
	c.mu.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"name":   name,
	}).Debug("Updated name cache")
}

// Len returns the number of cached names
func (c *NameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Clear drops every cached name
func (c *NameCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = make(map[string]string)
}
