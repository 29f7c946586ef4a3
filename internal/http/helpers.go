package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"moneymate/internal/core"
	"moneymate/internal/log"
	"moneymate/internal/storage"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error onto a status code. Unknown errors
// are logged and reported without detail.
func (h *handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_error",
			Message: ve.Err.Error(),
			Field:   ve.Field,
		})
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, core.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, storage.ErrPersistence):
		h.log.LogError(r.Context(), "Ledger store unavailable", err, op,
			log.NewFields().WithUser(userIDParam(r)).WithErrorType(log.ErrorTypePersistence))
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "the ledger could not be saved, try again")
	default:
		h.log.LogError(r.Context(), "Request failed", err, op,
			log.NewFields().WithUser(userIDParam(r)).WithErrorType(log.ErrorTypeInternal))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeJSON reads a single JSON object into dst and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return nil
}

// parseIntQuery returns def when key is absent.
func parseIntQuery(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, key)
	}
	return n, nil
}

func userIDParam(r *http.Request) string {
	return chi.URLParam(r, "userID")
}

// clientIP strips the port from RemoteAddr, which RealIP may already have
// replaced with a forwarded address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
