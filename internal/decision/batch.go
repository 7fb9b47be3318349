package decision

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

// UniqueTickers normalizes tickers and drops blanks and repeats, keeping first-seen order
func UniqueTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		n, err := contracts.ParseTicker(t)
		if err != nil {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// AnalyzeBatch analyzes each unique ticker independently; results follow input order
func (e *Engine) AnalyzeBatch(ctx context.Context, tickers []string, template Request) []contracts.AnalysisReport {
	unique := UniqueTickers(tickers)
	reports := make([]contracts.AnalysisReport, len(unique))

	e.runBatch(ctx, unique, template, func(i int, r contracts.AnalysisReport) {
		reports[i] = r
	})
	return reports
}

// StreamBatch calls onReport as each ticker completes; calls are serialized
func (e *Engine) StreamBatch(ctx context.Context, tickers []string, template Request, onReport func(contracts.AnalysisReport)) int {
	unique := UniqueTickers(tickers)

	var mu sync.Mutex
	e.runBatch(ctx, unique, template, func(_ int, r contracts.AnalysisReport) {
		mu.Lock()
		defer mu.Unlock()
		onReport(r)
	})
	return len(unique)
}

func (e *Engine) runBatch(ctx context.Context, tickers []string, template Request, done func(int, contracts.AnalysisReport)) {
	workers := e.options.Workers
	if workers <= 0 {
		workers = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if e.options.ProviderRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(e.options.ProviderRate), 1)
	}

	e.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"workers": workers,
	}).Info("Starting batch analysis")

	var g errgroup.Group
	g.SetLimit(workers)

	for i, ticker := range tickers {
		g.Go(func() error {
			req := template
			req.Ticker = ticker

			if err := limiter.Wait(ctx); err != nil {
				done(i, e.degraded(ticker, err))
				return nil
			}
			done(i, e.Analyze(ctx, req))
			return nil
		})
	}
	_ = g.Wait()
}
