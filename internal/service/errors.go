package service

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicate          = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrSelfReference      = errors.New("self reference")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")

	// ErrRelationMissing is returned when removing an association that does not exist.
	// It still matches ErrNotFound but is reported as a bad request.
	ErrRelationMissing = fmt.Errorf("relation %w", ErrNotFound)
)

// ValidationError reports a problem with one request field
type ValidationError struct {
	Field   string
	Message string
	kind    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.kind != nil {
		return e.kind
	}
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// duplicateField is a ValidationError that also matches ErrDuplicate
func duplicateField(field, message string) error {
	return &ValidationError{Field: field, Message: message, kind: ErrDuplicate}
}

// detailedError carries a user facing message for one of the sentinel errors
type detailedError struct {
	kind    error
	message string
}

func (e *detailedError) Error() string { return e.message }
func (e *detailedError) Unwrap() error { return e.kind }

func withDetail(kind error, message string) error {
	return &detailedError{kind: kind, message: message}
}

// isDuplicate recognises unique violations from every supported driver
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// notFound maps gorm.ErrRecordNotFound to ErrNotFound with a message
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return withDetail(ErrNotFound, message)
	}
	return errors.Wrap(err, message)
}
