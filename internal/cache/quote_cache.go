package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

type quoteEntry struct {
	snapshot contracts.MarketSnapshot
	storedAt time.Time
}

// QuoteCache holds market snapshots per (ticker, lookback) for a TTL
// ⭐ SSOT: 스냅샷 캐싱은 이 구조체에서만
//
// Snapshots are stored and returned by value so callers never share state.
type QuoteCache struct {
	mu      sync.RWMutex
	entries map[string]quoteEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

// NewQuoteCache creates a quote cache; ttl <= 0 keeps entries forever
func NewQuoteCache(ttl time.Duration, log *logger.Logger) *QuoteCache {
	return &QuoteCache{
		entries: make(map[string]quoteEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  log,
	}
}

func quoteKey(ticker string, lookbackDays int) string {
	return fmt.Sprintf("%s/%d", contracts.NormalizeTicker(ticker), lookbackDays)
}

// Get returns a fresh snapshot copy
func (c *QuoteCache) Get(ticker string, lookbackDays int) (*contracts.MarketSnapshot, bool) {
	c.mu.RLock()
	entry, ok := c.entries[quoteKey(ticker, lookbackDays)]
	c.mu.RUnlock()

	if !ok || c.expired(entry) {
		return nil, false
	}
	snap := entry.snapshot
	return &snap, true
}

// Put stores a snapshot copy, last write wins
func (c *QuoteCache) Put(lookbackDays int, snap *contracts.MarketSnapshot) {
	if snap == nil {
		return
	}

	c.mu.Lock()
	c.entries[quoteKey(snap.Ticker, lookbackDays)] = quoteEntry{
		snapshot: *snap,
		storedAt: c.now(),
	}
	c.mu.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"ticker":   snap.Ticker,
		"lookback": lookbackDays,
		"price":    snap.CurrentPrice,
	}).Debug("Updated quote cache")
}

// GetOrLoad returns the cached snapshot or calls load and caches its result
func (c *QuoteCache) GetOrLoad(
	ctx context.Context,
	ticker string,
	lookbackDays int,
	load func(ctx context.Context) (*contracts.MarketSnapshot, error),
) (*contracts.MarketSnapshot, error) {
	if snap, ok := c.Get(ticker, lookbackDays); ok {
		return snap, nil
	}

	snap, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.Put(lookbackDays, snap)

	out := *snap
	return &out, nil
}

// Delete removes every lookback entry of ticker
func (c *QuoteCache) Delete(ticker string) {
	prefix := contracts.NormalizeTicker(ticker) + "/"

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of entries, stale ones included
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes expired entries and returns how many were dropped
func (c *QuoteCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *QuoteCache) expired(entry quoteEntry) bool {
	return c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl
}
