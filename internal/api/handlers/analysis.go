package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/decision"
	"github.com/Howie-Waves/StockMate/internal/report"
	"github.com/Howie-Waves/StockMate/internal/technical"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// AnalysisHandler serves the analysis pipeline and single backtests
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	engine *decision.Engine
	agent  *technical.Agent
	store  report.Store
	logger *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler; store may be nil
func NewAnalysisHandler(engine *decision.Engine, agent *technical.Agent, store report.Store, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		engine: engine,
		agent:  agent,
		store:  store,
		logger: log,
	}
}

// Analyze runs the full pipeline for one ticker
// GET /api/analysis/{ticker}?strategy=&capital=&stop_loss=&take_profit=
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker, err := contracts.ParseTicker(mux.Vars(r)["ticker"])
	if err != nil {
		respondErr(w, err)
		return
	}

	strategy, err := strategyParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	req := decision.Request{Ticker: ticker, Strategy: strategy}
	for name, dst := range map[string]*float64{
		"capital":     &req.PlannedCapital,
		"stop_loss":   &req.StopLossPct,
		"take_profit": &req.TakeProfitPct,
	} {
		v, err := floatParam(r, name)
		if err != nil {
			respondErr(w, err)
			return
		}
		*dst = v
	}

	rep := h.engine.Analyze(ctx, req)

	if h.store != nil {
		if err := h.store.Save(ctx, rep); err != nil {
			h.logger.WithError(err).WithTicker(ticker).Error("Failed to save report")
		}
	}

	respondJSON(w, http.StatusOK, rep)
}

// Backtest runs one strategy over the configured lookback
// GET /api/backtest/{ticker}?strategy=
func (h *AnalysisHandler) Backtest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker, err := contracts.ParseTicker(mux.Vars(r)["ticker"])
	if err != nil {
		respondErr(w, err)
		return
	}
	opts := h.engine.Options()

	strategy, err := strategyParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if strategy == "" {
		strategy = opts.Strategy
	}

	metrics, err := h.agent.Backtest(ctx, ticker, strategy, opts.LookbackDays, opts.InitialCash)
	if err != nil {
		h.logger.WithError(err).WithTicker(ticker).Debug("Backtest request failed")
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}
