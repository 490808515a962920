package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"labtrack/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error payload: a short machine-checkable
// message plus the underlying cause for operator diagnosis.
type errorBody struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// writeError maps the domain error taxonomy onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: "not found", Details: err.Error()})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "validation failed", Details: err.Error()})
	case errors.Is(err, domain.ErrPrecondition):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "precondition failed", Details: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Message: "conflict", Details: err.Error()})
	case errors.Is(err, domain.ErrConversion):
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "conversion failed", Details: err.Error()})
	case errors.Is(err, domain.ErrRestore):
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "restore failed", Details: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal error", Details: err.Error()})
	}
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
