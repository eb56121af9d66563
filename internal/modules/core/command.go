package core

import (
	"errors"
	"fmt"
	"net/http"
)

// CommandError carries the HTTP status a handler failure should be reported with.
type CommandError struct {
	Payload    interface{}
	StatusCode int
	Reason     *string
}

type CommandErrorOption func(*CommandError)

func WithReason(reason string) CommandErrorOption {
	return func(e *CommandError) {
		e.Reason = &reason
	}
}

func NewCommandError(statusCode int, payload interface{}, opts ...CommandErrorOption) CommandError {
	e := CommandError{
		StatusCode: statusCode,
		Payload:    payload,
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

// Message is the text shown to API callers.
func (r CommandError) Message() string {
	switch p := r.Payload.(type) {
	case nil:
		return http.StatusText(r.StatusCode)
	case error:
		return p.Error()
	case string:
		return p
	default:
		return fmt.Sprintf("%v", p)
	}
}

func (r CommandError) Error() string {
	if r.Reason != nil {
		return fmt.Sprintf("%s: %s", *r.Reason, r.Message())
	}

	return r.Message()
}

func (r CommandError) Unwrap() error {
	if err, ok := r.Payload.(error); ok {
		return err
	}

	return nil
}

// AsCommandError returns the CommandError in err's chain, if any.
func AsCommandError(err error) (CommandError, bool) {
	var commandErr CommandError
	if errors.As(err, &commandErr) {
		return commandErr, true
	}

	return CommandError{}, false
}

// ErrorStatus binds a sentinel error to the status it is reported with.
type ErrorStatus struct {
	Err        error
	StatusCode int
}

// TranslateError wraps err in a CommandError carrying the status of the first
// matching sentinel. Unmatched errors are returned unchanged.
func TranslateError(err error, statuses []ErrorStatus) error {
	if err == nil {
		return nil
	}

	for _, s := range statuses {
		if errors.Is(err, s.Err) {
			return NewCommandError(s.StatusCode, s.Err)
		}
	}

	return err
}
