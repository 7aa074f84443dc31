package models

import (
	"errors"
	"fmt"
)

var (
	ErrStoreUnavailable   = errors.New("banco de dados indisponível")
	ErrNotFound           = errors.New("registro não encontrado")
	ErrSuggestionRejected = errors.New("sugestão já foi rejeitada")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StoreError wraps a driver error so callers can match ErrStoreUnavailable.
func StoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
