// Package jobs holds the scheduled jobs of the analysis service.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/decision"
	"github.com/Howie-Waves/StockMate/internal/report"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// WatchlistJobName 워치리스트 분석 작업 이름
const WatchlistJobName = "watchlist_analysis"

// Analyzer runs the pipeline over a batch of tickers
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, tickers []string, template decision.Request) []contracts.AnalysisReport
}

// Summary describes the last watchlist run
type Summary struct {
	Analyzed int
	Buy      int
	Sell     int
	Wait     int
	Degraded int
	Saved    int
}

// WatchlistJob analyzes the watchlist and stores every report
// ⭐ SSOT: 정기 분석은 이 작업에서만
type WatchlistJob struct {
	analyzer Analyzer
	store    report.Store
	tickers  []string
	template decision.Request
	schedule string
	logger   *logger.Logger

	last Summary
}

// NewWatchlistJob creates the job; store may be nil
func NewWatchlistJob(analyzer Analyzer, store report.Store, tickers []string, template decision.Request, schedule string, log *logger.Logger) *WatchlistJob {
	return &WatchlistJob{
		analyzer: analyzer,
		store:    store,
		tickers:  decision.UniqueTickers(tickers),
		template: template,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *WatchlistJob) Name() string {
	return WatchlistJobName
}

// Schedule returns the cron schedule
func (j *WatchlistJob) Schedule() string {
	return j.schedule
}

// LastSummary returns the counts of the previous run
func (j *WatchlistJob) LastSummary() Summary {
	return j.last
}

// Run analyzes every ticker. Degraded reports are stored like any other;
// only an empty watchlist or failed saves fail the run.
func (j *WatchlistJob) Run(ctx context.Context) error {
	if len(j.tickers) == 0 {
		return fmt.Errorf("%w: watchlist is empty", contracts.ErrConfiguration)
	}

	j.logger.WithField("tickers", len(j.tickers)).Info("Running watchlist analysis")

	reports := j.analyzer.AnalyzeBatch(ctx, j.tickers, j.template)

	var sum Summary
	var saveErrs []error
	for _, rep := range reports {
		sum.Analyzed++
		switch rep.FinalDecision {
		case contracts.DecisionBuy:
			sum.Buy++
		case contracts.DecisionSell:
			sum.Sell++
		default:
			sum.Wait++
		}
		if decision.IsDegraded(rep) {
			sum.Degraded++
		}

		if j.store == nil {
			continue
		}
		if err := j.store.Save(ctx, rep); err != nil {
			saveErrs = append(saveErrs, fmt.Errorf("%s: %w", rep.Ticker, err))
			continue
		}
		sum.Saved++
	}
	j.last = sum

	j.logger.WithFields(map[string]interface{}{
		"analyzed": sum.Analyzed,
		"buy":      sum.Buy,
		"sell":     sum.Sell,
		"wait":     sum.Wait,
		"degraded": sum.Degraded,
		"saved":    sum.Saved,
	}).Info("Watchlist analysis completed")

	return errors.Join(saveErrs...)
}
