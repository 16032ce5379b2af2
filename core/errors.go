package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

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
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

// ConflictError marks domain errors where the request is well formed but the
// current state of the resource forbids it (eg. editing a submitted evaluation).
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) error {
	return &ConflictError{msg: msg}
}

func (err ConflictError) Error() string { return err.msg }

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

// NotFoundError is returned by repositories when a lookup matches nothing.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string { return err.Resource + " not found" }

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// ForbiddenError marks actions the acting user is not allowed to perform on a resource.
type ForbiddenError struct {
	msg string
}

func NewForbiddenError(msg string) error {
	return &ForbiddenError{msg: msg}
}

func (err ForbiddenError) Error() string { return err.msg }

func IsForbidden(err error) bool {
	_, ok := errors.Cause(err).(*ForbiddenError)
	return ok
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

// SideEffectFailure describes a best-effort step (notification, webhook) that
// failed after the primary write had already succeeded.
type SideEffectFailure struct {
	Effect string
	Err    error
}

func (f SideEffectFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Effect, f.Err)
}

// Outcome is returned next to the result of operations with best-effort side
// effects. A degraded Outcome still means the primary action succeeded.
type Outcome struct {
	Failures []SideEffectFailure
}

func (o *Outcome) Fail(effect string, err error) {
	if err == nil {
		return
	}
	o.Failures = append(o.Failures, SideEffectFailure{Effect: effect, Err: err})
}

func (o Outcome) Degraded() bool { return len(o.Failures) > 0 }

// Warnings renders the failures for API responses.
func (o Outcome) Warnings() []string {
	if !o.Degraded() {
		return nil
	}
	ws := make([]string, 0, len(o.Failures))
	for _, f := range o.Failures {
		ws = append(ws, f.String())
	}
	return ws
}

// Report logs every failure at warn level.
func (o Outcome) Report(logger Logger, args ...interface{}) {
	for _, f := range o.Failures {
		logger.Warn(fmt.Sprintf("side effect failed: %s", f), append([]interface{}{f.Err}, args...)...)
	}
}
