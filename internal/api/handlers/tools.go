package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/kelly"
	"github.com/Howie-Waves/StockMate/internal/risk"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// ToolsHandler exposes the pure calculators
type ToolsHandler struct {
	thresholds risk.Thresholds
	logger     *logger.Logger
}

// NewToolsHandler creates a new tools handler
func NewToolsHandler(th risk.Thresholds, log *logger.Logger) *ToolsHandler {
	return &ToolsHandler{thresholds: th, logger: log}
}

// KellyRequest represents a Kelly sizing request
type KellyRequest struct {
	WinProbability float64 `json:"win_probability"`
	WinLossRatio   float64 `json:"win_loss_ratio"`
	PlannedCapital float64 `json:"planned_capital"`
	StopLossPct    float64 `json:"stop_loss_pct"`
	TakeProfitPct  float64 `json:"take_profit_pct"`
}

// KellyResponse carries the result plus the sizing tip
type KellyResponse struct {
	*contracts.KellyResult
	Advice string `json:"advice"`
}

// Kelly sizes a position
// POST /api/kelly
func (h *ToolsHandler) Kelly(w http.ResponseWriter, r *http.Request) {
	req := KellyRequest{
		PlannedCapital: kelly.DefaultPlannedCapital,
		StopLossPct:    kelly.DefaultStopLossPct,
		TakeProfitPct:  kelly.DefaultTakeProfitPct,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.WinLossRatio == 0 {
		req.WinLossRatio = kelly.RatioFromStops(req.StopLossPct, req.TakeProfitPct)
	}

	result, err := kelly.Calculate(kelly.Input{
		WinProbability: req.WinProbability,
		WinLossRatio:   req.WinLossRatio,
		PlannedCapital: req.PlannedCapital,
		StopLossPct:    req.StopLossPct,
		TakeProfitPct:  req.TakeProfitPct,
	})
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, KellyResponse{KellyResult: result, Advice: kelly.Advice(result)})
}

// RiskRequest represents a risk gate request; zero limits use the server's
type RiskRequest struct {
	Volatility    float64 `json:"volatility"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	VolLimit      float64 `json:"max_volatility_limit"`
	DrawdownLimit float64 `json:"max_drawdown_limit"`
}

// EvaluateRisk runs the hard veto
// POST /api/risk/evaluate
func (h *ToolsHandler) EvaluateRisk(w http.ResponseWriter, r *http.Request) {
	var req RiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	th := h.thresholds
	if req.VolLimit != 0 {
		th.MaxVolatility = req.VolLimit
	}
	if req.DrawdownLimit != 0 {
		th.MaxDrawdown = req.DrawdownLimit
	}
	if th.MaxVolatility < 0 || th.MaxDrawdown < 0 {
		respondErr(w, fmt.Errorf("%w: limits must be >= 0", contracts.ErrConfiguration))
		return
	}

	respondJSON(w, http.StatusOK, risk.Evaluate(req.Volatility, req.MaxDrawdown, th))
}
