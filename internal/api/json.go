package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sourcelens/sourcelens/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps the service error taxonomy onto HTTP responses:
// validation 400, not found 404, everything upstream 500. Parsing
// failures are tagged so clients can tell them from provider failures.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrParse):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: err.Error(), Type: "parsing_error"})
	case errors.Is(err, apperr.ErrBlocked):
		slog.Error(op+" blocked", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: err.Error(), Type: "blocked"})
	case errors.Is(err, apperr.ErrConfig), errors.Is(err, apperr.ErrProvider):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
