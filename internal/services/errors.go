package services

import (
	"fmt"

	"github.com/pkg/errors"

	"catalog/internal/repositories"
	"catalog/internal/validation"
)

var (
	// ErrInvalidIdentifier is returned when a product id is not an integer.
	ErrInvalidIdentifier = errors.New("invalid product identifier")
	// ErrNotFound is returned when no product exists for an id.
	ErrNotFound = repositories.ErrProductNotFound
)

// ValidationError carries the field errors of a rejected payload.
type ValidationError struct {
	Details []validation.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Details[0].Reason)
	}
	return fmt.Sprintf("validation failed on %d fields", len(e.Details))
}

// IsValidationError reports whether err is a ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
