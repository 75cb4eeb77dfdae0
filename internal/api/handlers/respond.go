package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Status: status})
}

// statusFor maps a service error to its HTTP status
// ⭐ SSOT: 에러 -> HTTP 상태 매핑은 여기서만
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadParam), contracts.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrNoData), errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Server-side failures
// are logged with fields; their detail is not sent to the client.
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error, fields map[string]interface{}) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		respondError(w, status, err.Error())
		return
	}

	log.WithError(err).WithFields(fields).Error("Screening query failed")
	switch status {
	case http.StatusServiceUnavailable:
		respondError(w, status, "snapshot store unavailable")
		return
	case http.StatusGatewayTimeout:
		respondError(w, status, "request timed out")
		return
	}
	respondError(w, status, "internal server error")
}
