package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/LensForge/internal/domain/analysis"
)

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAnalysisError maps the failure taxonomy onto HTTP statuses.
func writeAnalysisError(w http.ResponseWriter, err error) {
	kind := analysis.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case analysis.KindValidation, analysis.KindCache:
		status = http.StatusBadRequest
	case analysis.KindConfiguration:
		status = http.StatusUnprocessableEntity
	case analysis.KindAuthentication:
		status = http.StatusBadGateway
	case analysis.KindTimeout:
		status = http.StatusGatewayTimeout
	case analysis.KindNetwork, analysis.KindProvider:
		status = http.StatusBadGateway
	case analysis.KindCanceled:
		status = 499 // client closed request
	}
	if status == http.StatusInternalServerError {
		slog.Error("unhandled analysis error", "error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(kind)})
}
