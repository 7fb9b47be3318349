package marketdata

import (
	"context"

	"github.com/Howie-Waves/StockMate/internal/cache"
	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
	"github.com/Howie-Waves/StockMate/pkg/redis"
)

// CachedProvider decorates a Source with the injected quote/name caches
// and an optional Redis tier shared between processes.
type CachedProvider struct {
	next   Source
	quotes *cache.QuoteCache
	names  *cache.NameCache
	remote *redis.Cache
	logger *logger.Logger
}

// NewCachedProvider wraps next; remote may be nil or disabled
// A nil names cache is replaced by one backed by next.
func NewCachedProvider(next Source, quotes *cache.QuoteCache, names *cache.NameCache, remote *redis.Cache, log *logger.Logger) *CachedProvider {
	if names == nil {
		names = cache.NewNameCache(next, log)
	}
	return &CachedProvider{
		next:   next,
		quotes: quotes,
		names:  names,
		remote: remote,
		logger: log,
	}
}

// FetchSnapshot checks memory, then Redis, then the wrapped source
func (p *CachedProvider) FetchSnapshot(ctx context.Context, ticker string, lookbackDays int) (*contracts.MarketSnapshot, error) {
	ticker = contracts.NormalizeTicker(ticker)

	return p.quotes.GetOrLoad(ctx, ticker, lookbackDays, func(ctx context.Context) (*contracts.MarketSnapshot, error) {
		key := redis.SnapshotKey(ticker, lookbackDays)

		var snap contracts.MarketSnapshot
		found, err := p.remote.Get(ctx, key, &snap)
		if err != nil {
			p.logger.WithError(err).WithTicker(ticker).Warn("Snapshot cache read failed")
		}
		if found {
			return &snap, nil
		}

		fresh, err := p.next.FetchSnapshot(ctx, ticker, lookbackDays)
		if err != nil {
			return nil, err
		}
		if err := p.remote.Set(ctx, key, fresh, redis.TTLSnapshot); err != nil {
			p.logger.WithError(err).WithTicker(ticker).Warn("Snapshot cache write failed")
		}
		return fresh, nil
	})
}

// FetchHistory is not cached
func (p *CachedProvider) FetchHistory(ctx context.Context, ticker string, lookbackDays int) (contracts.PriceSeries, error) {
	return p.next.FetchHistory(ctx, ticker, lookbackDays)
}

// FetchNews is not cached
func (p *CachedProvider) FetchNews(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error) {
	return p.next.FetchNews(ctx, ticker, limit)
}

// LookupName goes through the name cache
func (p *CachedProvider) LookupName(ctx context.Context, ticker string) (string, error) {
	return p.names.Name(ctx, ticker)
}
