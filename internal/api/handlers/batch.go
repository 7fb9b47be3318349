package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Howie-Waves/StockMate/internal/contracts"
	"github.com/Howie-Waves/StockMate/internal/decision"
	"github.com/Howie-Waves/StockMate/internal/report"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	readWait       = 30 * time.Second
	maxBatchSize   = 200
	maxMessageSize = 64 * 1024
)

// BatchRequest is the first client message on /ws/batch
type BatchRequest struct {
	Tickers  []string `json:"tickers"`
	Strategy string   `json:"strategy,omitempty"`
}

// BatchMessage is one server message; exactly one of Report/Error/Done is set
type BatchMessage struct {
	Report *contracts.AnalysisReport `json:"report,omitempty"`
	Error  *ErrorResponse            `json:"error,omitempty"`
	Done   bool                      `json:"done,omitempty"`
	Count  int                       `json:"count,omitempty"`
}

// BatchHandler streams batch analyses over a websocket
type BatchHandler struct {
	engine   *decision.Engine
	store    report.Store
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewBatchHandler creates a new batch handler; store may be nil
func NewBatchHandler(engine *decision.Engine, store report.Store, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		engine: engine,
		store:  store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Stream reads one BatchRequest and writes one report per message, then done
// GET /ws/batch
func (h *BatchHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(readWait))

	var req BatchRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeError(conn, ErrorResponse{Error: "invalid batch request", Kind: "ConfigurationError"})
		return
	}

	strategy := contracts.Strategy("")
	if req.Strategy != "" {
		s, err := contracts.ParseStrategy(req.Strategy)
		if err != nil {
			h.writeError(conn, ErrorResponse{Error: err.Error(), Kind: contracts.ErrorKind(err)})
			return
		}
		strategy = s
	}
	if len(req.Tickers) == 0 || len(req.Tickers) > maxBatchSize {
		h.writeError(conn, ErrorResponse{Error: "tickers must contain 1-200 entries", Kind: "ConfigurationError"})
		return
	}

	ctx := r.Context()
	h.logger.WithField("tickers", len(req.Tickers)).Info("Batch stream started")

	var writeErr error
	count := h.engine.StreamBatch(ctx, req.Tickers, decision.Request{Strategy: strategy}, func(rep contracts.AnalysisReport) {
		if h.store != nil {
			if err := h.store.Save(ctx, rep); err != nil {
				h.logger.WithError(err).WithTicker(rep.Ticker).Error("Failed to save report")
			}
		}
		if writeErr != nil {
			return
		}
		writeErr = h.write(conn, BatchMessage{Report: &rep})
	})

	if writeErr != nil {
		h.logger.WithError(writeErr).Warn("Batch stream client went away")
		return
	}
	_ = h.write(conn, BatchMessage{Done: true, Count: count})
}

func (h *BatchHandler) write(conn *websocket.Conn, msg BatchMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (h *BatchHandler) writeError(conn *websocket.Conn, e ErrorResponse) {
	_ = h.write(conn, BatchMessage{Error: &e})
}
