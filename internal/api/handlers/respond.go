package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondErr maps the error taxonomy to a status code
func respondErr(w http.ResponseWriter, err error) {
	respondJSON(w, StatusFor(err), ErrorResponse{
		Error: err.Error(),
		Kind:  contracts.ErrorKind(err),
	})
}

// StatusFor returns the HTTP status of an error kind
func StatusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidStrategy), errors.Is(err, contracts.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// floatParam reads an optional float query parameter
func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &paramError{name: name}
	}
	return v, nil
}

type paramError struct {
	name string
}

func (e *paramError) Error() string {
	return "invalid query parameter '" + e.name + "'"
}

func (e *paramError) Unwrap() error {
	return contracts.ErrConfiguration
}

// strategyParam parses ?strategy=, empty means engine default
func strategyParam(r *http.Request) (contracts.Strategy, error) {
	raw := r.URL.Query().Get("strategy")
	if raw == "" {
		return "", nil
	}
	return contracts.ParseStrategy(raw)
}
