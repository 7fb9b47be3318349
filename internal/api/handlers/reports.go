package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Howie-Waves/StockMate/internal/report"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// ReportHandler reads stored reports
type ReportHandler struct {
	store  report.Store
	logger *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(store report.Store, log *logger.Logger) *ReportHandler {
	return &ReportHandler{store: store, logger: log}
}

// Latest returns the newest report of a ticker
// GET /api/reports/{ticker}/latest
func (h *ReportHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rep, err := h.store.Latest(r.Context(), mux.Vars(r)["ticker"])
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// Recent lists the newest reports
// GET /api/reports?limit=
func (h *ReportHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := report.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be an integer in [1, 500]")
			return
		}
		limit = n
	}

	reports, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list reports")
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}
