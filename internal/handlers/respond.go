package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"docqa/internal/contextutil"
	"docqa/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSON writes v with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// decodeAndValidate decodes a JSON body into dst and runs struct validation.
// It writes the 400 response itself and reports false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		logger.WarnContext(ctx, "request validation failed", "error", err)
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage renders validator errors as a single client-facing line.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "Invalid request"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email address", field))
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return "Validation error: " + strings.Join(parts, "; ")
}

// writeServiceError maps an error from the service layer onto a status code.
// Collaborator failures never expose internal details.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, notFoundMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	switch service.Classify(err) {
	case service.ErrFileTooLarge:
		logger.WarnContext(ctx, "request rejected", "error", err)
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
	case service.ErrInvalidInput:
		logger.WarnContext(ctx, "request rejected", "error", err)
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Message))
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid input")
	case service.ErrNotFound:
		logger.InfoContext(ctx, "resource not found", "error", err)
		writeError(w, http.StatusNotFound, notFoundMsg)
	case service.ErrUnauthorized:
		logger.WarnContext(ctx, "unauthorized", "error", err)
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
	default:
		logger.ErrorContext(ctx, "service error", "error", err)
		if service.IsCollaboratorOutage(err) {
			writeError(w, http.StatusBadGateway, "External service error")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	}
}

// tenantOrUnauthorized returns the tenant set by the auth middleware.
func tenantOrUnauthorized(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID, ok := contextutil.TenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	return tenantID, true
}
