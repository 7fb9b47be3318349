package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Howie-Waves/StockMate/internal/api/handlers"
	"github.com/Howie-Waves/StockMate/pkg/logger"
)

// Handlers groups the endpoint handlers; Reports may be nil
type Handlers struct {
	Analysis *handlers.AnalysisHandler
	Tools    *handlers.ToolsHandler
	Reports  *handlers.ReportHandler
	Batch    *handlers.BatchHandler
}

// HealthFunc reports dependency health for /health
type HealthFunc func(r *http.Request) map[string]interface{}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, limiter *ClientLimiter, health HealthFunc, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(health)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	if limiter != nil {
		api.Use(rateLimitMiddleware(limiter, log))
	}

	// Analysis endpoints
	api.HandleFunc("/analysis/{ticker}", h.Analysis.Analyze).Methods("GET")
	api.HandleFunc("/backtest/{ticker}", h.Analysis.Backtest).Methods("GET")

	// Calculators
	api.HandleFunc("/kelly", h.Tools.Kelly).Methods("POST")
	api.HandleFunc("/risk/evaluate", h.Tools.EvaluateRisk).Methods("POST")

	// Stored reports
	if h.Reports != nil {
		api.HandleFunc("/reports", h.Reports.Recent).Methods("GET")
		api.HandleFunc("/reports/{ticker}/latest", h.Reports.Latest).Methods("GET")
	}

	// Batch stream
	if h.Batch != nil {
		r.HandleFunc("/ws/batch", h.Batch.Stream).Methods("GET")
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(health HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "stockmate-api",
		}
		if health != nil {
			for k, v := range health(r) {
				body[k] = v
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the recorder
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
