package service

import (
	"errors"
	"fmt"

	"docqa/internal/auth"
	"docqa/internal/extract"
	"docqa/internal/indexer"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/storage"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrFileTooLarge is returned for uploads above the size limit.
	ErrFileTooLarge = fmt.Errorf("%w: file too large", ErrInvalidInput)
	// ErrNotFound is returned when a requested resource is not found or is
	// owned by another tenant.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable is returned when a collaborator (embedding, generation,
	// vector index, record store) fails.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Classify maps an error from any layer onto ErrFileTooLarge, ErrInvalidInput,
// ErrNotFound, ErrUnauthorized or ErrUnavailable. It returns nil for nil.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrFileTooLarge):
		return ErrFileTooLarge
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, indexer.ErrEmptyContent),
		errors.Is(err, indexer.ErrNoChunksProduced),
		errors.Is(err, rag.ErrEmptyQuery),
		errors.Is(err, extract.ErrUnsupportedMediaType),
		errors.Is(err, extract.ErrExtractionFailed):
		return ErrInvalidInput
	case errors.Is(err, ErrNotFound),
		errors.Is(err, indexer.ErrDocumentNotFound),
		errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, indexer.ErrTenantRequired),
		errors.Is(err, rag.ErrTenantRequired):
		return ErrUnauthorized
	default:
		// Embedding, generation, index and store failures.
		return ErrUnavailable
	}
}

// IsCollaboratorOutage reports whether err came from the embedding or
// generation provider rather than a local store.
func IsCollaboratorOutage(err error) bool {
	return errors.Is(err, llm.ErrEmbeddingUnavailable) || errors.Is(err, llm.ErrGenerationUnavailable)
}
