package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"talks/internal/domain"
	"talks/internal/dto"
	"talks/internal/observability/middleware"
)

// maxBodyBytes bounds JSON bodies; avatars and message images arrive inline
// as base64.
const maxBodyBytes = 10 << 20

const msgInternal = "Internal server error"

var errBadBody = &domain.Error{Kind: domain.KindValidation, Message: "Invalid request body"}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Wrap(errBadBody, err)
	}
	return nil
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// writeError maps classified errors to their status and message. Anything
// else is logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := domain.AsError(err); ok {
		writeJSON(w, statusFor(e.Kind), dto.MessageResponse{Message: e.Message})
		return
	}
	if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		slog.Warn("request aborted", append(middleware.LogAttrs(r.Context()),
			"path", r.URL.Path, "error", err)...)
	} else {
		slog.Error("request failed", append(middleware.LogAttrs(r.Context()),
			"method", r.Method, "path", r.URL.Path, "error", err)...)
	}
	writeJSON(w, http.StatusInternalServerError, dto.MessageResponse{Message: msgInternal})
}
