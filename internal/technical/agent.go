package technical

import (
	"context"
	"errors"
	"fmt"

	"github.com/Howie-Waves/StockMate/internal/backtest"
	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// Coarse signal thresholds on day-over-day change %
const (
	BuyThreshold  = 3.0
	SellThreshold = -3.0
)

// CoarseSignal maps today's move to Buy/Sell/Hold
func CoarseSignal(changePct float64) contracts.TechnicalSignal {
	switch {
	case changePct > BuyThreshold:
		return contracts.SignalBuy
	case changePct < SellThreshold:
		return contracts.SignalSell
	default:
		return contracts.SignalHold
	}
}

// Result is the technical stage output
// Backtest is nil when BacktestErr is set.
type Result struct {
	Signal      contracts.TechnicalSignal
	ChangePct   float64
	Backtest    *contracts.BacktestMetrics
	BacktestErr error
}

// Request parameters of one technical analysis
type Request struct {
	Ticker       string
	Snapshot     *contracts.MarketSnapshot // nil → Hold
	Strategy     contracts.Strategy
	LookbackDays int
	InitialCash  float64
}

// Agent derives the coarse signal and validates it against a backtest
// ⭐ SSOT: 단기 신호와 백테스트는 독립 (백테스트가 신호를 바꾸지 않음)
type Agent struct {
	runner  *backtest.Runner
	history contracts.PriceHistoryProvider
	logger  *logger.Logger
}

// NewAgent creates a technical agent
func NewAgent(runner *backtest.Runner, history contracts.PriceHistoryProvider, log *logger.Logger) *Agent {
	return &Agent{
		runner:  runner,
		history: history,
		logger:  log,
	}
}

// Analyze never fails; backtest problems land in Result.BacktestErr
func (a *Agent) Analyze(ctx context.Context, req Request) *Result {
	res := &Result{Signal: contracts.SignalHold}
	if req.Snapshot != nil {
		res.ChangePct = req.Snapshot.ChangePct
		res.Signal = CoarseSignal(req.Snapshot.ChangePct)
	}

	metrics, err := a.Backtest(ctx, req.Ticker, req.Strategy, req.LookbackDays, req.InitialCash)
	if err != nil {
		res.BacktestErr = err

		log := a.logger.WithTicker(req.Ticker).WithField("kind", contracts.ErrorKind(err))
		if errors.Is(err, contracts.ErrInsufficientHistory) || errors.Is(err, contracts.ErrDataUnavailable) {
			log.WithError(err).Info("Backtest skipped")
		} else {
			log.WithError(err).Warn("Backtest failed")
		}
		return res
	}

	res.Backtest = metrics
	return res
}

// Backtest loads history and runs one strategy
func (a *Agent) Backtest(ctx context.Context, ticker string, strategy contracts.Strategy, lookbackDays int, initialCash float64) (*contracts.BacktestMetrics, error) {
	ticker = contracts.NormalizeTicker(ticker)

	// 잘못된 전략은 데이터 조회 전에 거부
	strategy, err := contracts.ParseStrategy(string(strategy))
	if err != nil {
		return nil, err
	}

	series, err := a.history.FetchHistory(ctx, ticker, lookbackDays)
	if err != nil {
		if !errors.Is(err, contracts.ErrDataUnavailable) {
			err = fmt.Errorf("%w: %v", contracts.ErrDataUnavailable, err)
		}
		return nil, err
	}

	return a.runner.Run(ctx, backtest.Request{
		Ticker:      ticker,
		Series:      series,
		Strategy:    strategy,
		InitialCash: initialCash,
	})
}
