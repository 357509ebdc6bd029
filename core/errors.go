package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// PrefixFields returns a copy of the error with every field name prefixed, e.g. "[2].username".
func (err ValidationError) PrefixFields(prefix string) *ValidationError {
	flds := make([]FieldError, 0, len(err.Fields))
	for _, f := range err.Fields {
		flds = append(flds, FieldError{Field: prefix + f.Field, Error: f.Error})
	}
	return &ValidationError{Err: err.Err, Fields: flds}
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
