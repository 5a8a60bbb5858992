package portfolio

import (
	"errors"
	"fmt"
)

// ValidationError is a user-facing rejection of a mutation: bad input,
// duplicate record or a consistency rule (insufficient shares, last
// portfolio). It never wraps a provider or storage failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a user-facing validation error as
// opposed to an internal failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
