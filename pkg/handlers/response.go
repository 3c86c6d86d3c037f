package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/apperrors"
	"github.com/acme/taskmanager/pkg/logging"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response, logging if the write itself fails.
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeJSON writes data, logging if encoding fails.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, statusCode int, data any) {
	if err := WriteJSON(w, statusCode, data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrInvalidArgument):
		writeError(w, logger, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, apperrors.ErrConstraintViolation):
		writeError(w, logger, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		logger.Error("Store unavailable", logging.Error(err))
		writeError(w, logger, http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable")
	default:
		logger.Error("Request failed", logging.Error(err))
		writeError(w, logger, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
