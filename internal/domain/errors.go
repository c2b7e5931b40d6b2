package domain

import (
	"errors"
	"strings"
)

// ValidationError is returned when a submission lacks required fields.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
