package diagnostic

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotSupported  = errors.New("not supported")
	ErrBadValue      = errors.New("bad value")
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("improperly configured")
)

// NotSupportedError reports a column kind, on-delete policy or engine
// that has no translation.
type NotSupportedError struct {
	What  string // "field kind", "on_delete", "engine", ...
	Value string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s %q is not supported", e.What, e.Value)
}

// Is matches ErrNotSupported.
func (e *NotSupportedError) Is(target error) bool { return target == ErrNotSupported }

// NotSupported returns a *NotSupportedError.
func NotSupported(what, value string) error {
	return &NotSupportedError{What: what, Value: value}
}

// BadValueError reports input that cannot be decoded into a field's
// canonical type. Input keeps the offending value.
type BadValueError struct {
	Field  string
	Input  any
	Reason string
}

func (e *BadValueError) Error() string {
	msg := fmt.Sprintf("bad value %#v", e.Input)
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}

	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

// Is matches ErrBadValue.
func (e *BadValueError) Is(target error) bool { return target == ErrBadValue }

// BadValue returns a *BadValueError for input.
func BadValue(field string, input any, reason string) error {
	return &BadValueError{Field: field, Input: input, Reason: reason}
}

// ValidationError reports a decoded value that violates a constraint.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return e.Field + ": " + e.Message
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation returns a *ValidationError.
func Validation(code, format string, args ...any) error {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithField sets the field name on validation and bad value errors
// found in err's chain. Other errors are returned unchanged.
func WithField(err error, field string) error {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Field == "" {
		ve.Field = field
		return err
	}

	var be *BadValueError
	if errors.As(err, &be) && be.Field == "" {
		be.Field = field
	}

	return err
}

// Configuration returns an error marked as ErrConfiguration.
func Configuration(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}

// UnknownEngine reports an engine identifier with no backend. The error
// matches both ErrConfiguration and ErrNotSupported.
func UnknownEngine(engine string) error {
	return errors.Mark(NotSupported("engine", engine), ErrConfiguration)
}

// Warning is a recoverable condition: the value is usable after a
// best-effort coercion and execution continues.
type Warning struct {
	Code    string
	Field   string
	Message string
}

func (w Warning) String() string {
	if w.Field == "" {
		return w.Message
	}

	return w.Field + ": " + w.Message
}

// WarnFunc receives recoverable warnings.
type WarnFunc func(Warning)
