package core

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eskrenkovic/mediator-go"
)

type Validator interface {
	Validate() error
}

type ValidationError struct {
	ValidationErrors []error
}

func (e ValidationError) Error() string {
	messages := Map(e.ValidationErrors, func(err error) string { return err.Error() })
	return strings.Join(messages, "; ")
}

// Validation collects field errors and returns nil when there are none.
func Validation(errs ...error) error {
	var collected []error
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}

	if len(collected) == 0 {
		return nil
	}

	return ValidationError{ValidationErrors: collected}
}

// Check returns err when the condition does not hold.
func Check(ok bool, err error) error {
	if ok {
		return nil
	}

	return err
}

// Required returns an error naming field when value is blank.
func Required(field, value string) error {
	return Check(strings.TrimSpace(value) != "", errors.New(field+" is required"))
}

var _ mediator.PipelineBehavior = (*RequestValidationBehavior)(nil)

type RequestValidationBehavior struct{}

func (b *RequestValidationBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	if request, ok := request.(Validator); ok {
		if err := request.Validate(); err != nil {
			return nil, NewCommandError(http.StatusBadRequest, err, WithReason("request validation failed"))
		}
	}

	return next(ctx, request)
}
