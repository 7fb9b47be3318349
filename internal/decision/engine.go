package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/explain"
	"github.com/Howie-Waves/StockMate/internal/kelly"
	"github.com/Howie-Waves/StockMate/internal/risk"
	"github.com/Howie-Waves/StockMate/internal/sentiment"
	"github.com/Howie-Waves/StockMate/internal/technical"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// Options are the per-engine analysis defaults
type Options struct {
	Strategy        contracts.Strategy
	LookbackDays    int
	NewsLimit       int
	InitialCash     float64
	PlannedCapital  float64
	StopLossPct     float64
	TakeProfitPct   float64
	ProviderTimeout time.Duration
	Workers         int     // batch 동시 실행 수
	ProviderRate    float64 // batch 초당 실행 수, 0 = 제한 없음
}

// DefaultOptions returns the reference defaults
func DefaultOptions() Options {
	return Options{
		Strategy:        contracts.StrategyRSI,
		LookbackDays:    365,
		NewsLimit:       10,
		InitialCash:     100000,
		PlannedCapital:  kelly.DefaultPlannedCapital,
		StopLossPct:     kelly.DefaultStopLossPct,
		TakeProfitPct:   kelly.DefaultTakeProfitPct,
		ProviderTimeout: 10 * time.Second,
		Workers:         4,
	}
}

// Request is one analysis; zero fields take the engine Options
type Request struct {
	Ticker         string
	Strategy       contracts.Strategy
	PlannedCapital float64
	StopLossPct    float64
	TakeProfitPct  float64
}

// Engine runs the single-pass analysis pipeline
// ⭐ SSOT: 분석 파이프라인 조율은 여기서만
//
// Stages: perceive → sentiment → technical → risk → decide → size → emit.
// Analyze never returns an error; failures become a degraded report.
type Engine struct {
	market   contracts.MarketDataProvider
	news     contracts.NewsProvider
	agent    *technical.Agent
	gate     *risk.Gate
	enricher *explain.Enricher

	options Options
	now     func() time.Time
	logger  *logger.Logger
}

// NewEngine creates the decision engine
func NewEngine(
	market contracts.MarketDataProvider,
	news contracts.NewsProvider,
	agent *technical.Agent,
	gate *risk.Gate,
	enricher *explain.Enricher,
	options Options,
	logger *logger.Logger,
) *Engine {
	return &Engine{
		market:   market,
		news:     news,
		agent:    agent,
		gate:     gate,
		enricher: enricher,
		options:  options,
		now:      time.Now,
		logger:   logger,
	}
}

// Options returns the engine defaults
func (e *Engine) Options() Options {
	return e.options
}

// Analyze runs every stage for one ticker
func (e *Engine) Analyze(ctx context.Context, req Request) (report contracts.AnalysisReport) {
	ticker := contracts.NormalizeTicker(req.Ticker)
	start := e.now()
	runID := fmt.Sprintf("%s-%d", ticker, start.UnixNano())
	log := e.logger.WithTicker(ticker).WithField("run_id", runID)

	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("Analysis panicked")
			report = e.degraded(ticker, fmt.Errorf("panic: %v", rec))
		}
	}()

	report, err := e.run(ctx, ticker, e.resolve(req), log)
	if err != nil {
		log.WithError(err).WithField("kind", contracts.ErrorKind(err)).Error("Analysis degraded")
		return e.degraded(ticker, err)
	}

	log.WithFields(map[string]interface{}{
		"decision":    report.FinalDecision,
		"risk":        report.RiskAssessment,
		"sentiment":   report.SentimentScore,
		"signal":      report.TechnicalSignal,
		"duration_ms": e.now().Sub(start).Milliseconds(),
	}).Info("Analysis completed")

	return report
}

func (e *Engine) resolve(req Request) Request {
	if req.Strategy == "" {
		req.Strategy = e.options.Strategy
	}
	if req.PlannedCapital == 0 {
		req.PlannedCapital = e.options.PlannedCapital
	}
	if req.StopLossPct == 0 {
		req.StopLossPct = e.options.StopLossPct
	}
	if req.TakeProfitPct == 0 {
		req.TakeProfitPct = e.options.TakeProfitPct
	}
	return req
}

func (e *Engine) run(ctx context.Context, ticker string, req Request, log *logger.Logger) (contracts.AnalysisReport, error) {
	if err := ctx.Err(); err != nil {
		return contracts.AnalysisReport{}, err
	}

	// Stage 1: Perceive
	log.Debug("Running stage: perceive")
	snap, news := e.perceive(ctx, ticker, log)

	// Stage 2: Sentiment
	score := sentiment.Score(news)
	log.WithField("score", score).Debug("sentiment completed")

	// Stage 3: Technical
	log.Debug("Running stage: technical")
	tech := e.agent.Analyze(ctx, technical.Request{
		Ticker:       ticker,
		Snapshot:     snap,
		Strategy:     req.Strategy,
		LookbackDays: e.options.LookbackDays,
		InitialCash:  e.options.InitialCash,
	})

	// Stage 4: Risk gate
	verdict := e.gate.Check(ticker, snap)
	log.WithField("approved", verdict.Approved).Debug("risk completed")

	// Stage 5: Decide
	report := Decide(Inputs{
		Ticker:         ticker,
		SentimentScore: score,
		Signal:         tech.Signal,
		Risk:           verdict,
		Backtest:       tech.Backtest,
	})

	// Stage 6: Size (no backtest, no Kelly)
	if tech.Backtest != nil {
		k, err := kelly.CalculateFromBacktest(tech.Backtest.WinRate, req.PlannedCapital, req.StopLossPct, req.TakeProfitPct)
		if err != nil {
			log.WithError(err).Warn("Kelly sizing skipped")
		} else {
			report.Kelly = k
		}
	}

	// Stage 7: Emit
	report.Reasoning = e.enricher.Field(ctx, contracts.ExplainReasoning, report, report.Reasoning)
	if report.Kelly != nil {
		report.Kelly.RiskWarning = e.enricher.Field(ctx, contracts.ExplainRiskWarning, report, report.Kelly.RiskWarning)
	}
	report.AnalysisTimestamp = e.now()

	if err := report.Validate(); err != nil {
		return contracts.AnalysisReport{}, fmt.Errorf("invalid report: %w", err)
	}
	return report, nil
}

// perceive fetches snapshot and news; failures leave nil and are logged
func (e *Engine) perceive(ctx context.Context, ticker string, log *logger.Logger) (*contracts.MarketSnapshot, []contracts.NewsItem) {
	var snap *contracts.MarketSnapshot
	var news []contracts.NewsItem

	if e.market != nil {
		fetchCtx, cancel := e.withTimeout(ctx)
		s, err := e.market.FetchSnapshot(fetchCtx, ticker, e.options.LookbackDays)
		cancel()
		if err != nil {
			log.WithError(err).WithField("kind", contracts.ErrorKind(err)).Warn("Market data unavailable")
		} else {
			snap = s
		}
	}

	if e.news != nil {
		fetchCtx, cancel := e.withTimeout(ctx)
		items, err := e.news.FetchNews(fetchCtx, ticker, e.options.NewsLimit)
		cancel()
		if err != nil {
			log.WithError(err).WithField("kind", contracts.ErrorKind(err)).Warn("News unavailable")
		} else {
			news = items
		}
	}

	log.WithFields(map[string]interface{}{
		"has_snapshot": snap != nil,
		"news":         len(news),
	}).Debug("perceive completed")

	return snap, news
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.options.ProviderTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.options.ProviderTimeout)
}

func (e *Engine) degraded(ticker string, err error) contracts.AnalysisReport {
	report := Degraded(ticker, err)
	report.AnalysisTimestamp = e.now()
	return report
}
