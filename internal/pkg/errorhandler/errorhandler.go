package errorhandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/minewatch/minewatch-api/internal/pkg/logger"
	"github.com/minewatch/minewatch-api/internal/pkg/response"
)

// HandleError logs the failure with the request ID and sends a formatted error response.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	logRequestError(ctx, status, code, message, err)
	response.Error(w, status, code, message)
}

func logRequestError(ctx context.Context, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event.Err(err)
	}

	event.Msg("Request error")
}

// HandleValidationError logs field errors at warn level and sends a 422.
func HandleValidationError(ctx context.Context, w http.ResponseWriter, fieldErrors map[string]string) {
	LogValidationError(ctx, fieldErrors)
	response.ValidationError(w, fieldErrors)
}

// HandleBackendError passes the backend's message through to the client verbatim.
func HandleBackendError(ctx context.Context, w http.ResponseWriter, message string, err error) {
	logRequestError(ctx, http.StatusBadGateway, "BACKEND_ERROR", message, err)
	response.BackendError(w, message)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	errJSON, _ := json.Marshal(fieldErrors)
	logger.FromContext(ctx).Warn().
		Str("request_id", logger.RequestID(ctx)).
		RawJSON("validation_errors", errJSON).
		Msg("Validation error")
}

// LogExternalServiceError logs errors from external service calls
func LogExternalServiceError(ctx context.Context, service string, endpoint string, statusCode int, err error) {
	logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("external_service", service).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Err(err).
		Msg("External service error")
}
