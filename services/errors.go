package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPersistence wraps every storage failure. Handlers answer it with a generic message.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError is returned before any write when input is rejected
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err carries a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// persistenceError logs a gateway failure and wraps it with ErrPersistence
func persistenceError(log logrus.FieldLogger, op, id string, err error) error {
	log.WithFields(logrus.Fields{
		"op":    op,
		"id":    id,
		"error": err,
	}).Error("Database operation failed")
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
