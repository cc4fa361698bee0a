package forms

import (
	"errors"
	"fmt"
)

// ErrNoRelationship is returned by relationship accessors of a field that
// has none configured. Check HasRelationship first.
var ErrNoRelationship = errors.New("forms: field has no relationship")

// ErrUnbound is returned when a field that needs a form is used on its own.
var ErrUnbound = errors.New("forms: field is not bound to a form")

// ConfigurationError reports a field set up in a way that cannot work.
type ConfigurationError struct {
	StatePath string
	Message   string
}

func (e *ConfigurationError) Error() string {
	return "forms: " + e.Message
}

func missingCreateOptionUsing(path string) error {
	return &ConfigurationError{
		StatePath: path,
		Message:   fmt.Sprintf("select field [%s] must have a [createOptionUsing()] callback set", path),
	}
}
