package core

import (
	"context"

	"github.com/eskrenkovic/mediator-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ mediator.PipelineBehavior = (*RequestTracingBehavior)(nil)

// RequestTracingBehavior wraps every mediator request in a span.
type RequestTracingBehavior struct {
	tracer trace.Tracer
}

func NewRequestTracingBehavior() *RequestTracingBehavior {
	return &RequestTracingBehavior{tracer: otel.Tracer("github.com/eskrenkovic/turn-tracker/mediator")}
}

func (b *RequestTracingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	name := shortRequestName(request)

	ctx, span := b.tracer.Start(ctx, "mediator "+name, trace.WithAttributes(
		attribute.String("mediator.request", name),
		attribute.String("correlation_id", CorrelationID(ctx)),
	))
	defer span.End()

	response, err := next(ctx, request)
	if err != nil {
		span.RecordError(err)
		if commandErr, ok := AsCommandError(err); ok && commandErr.StatusCode < 500 {
			span.SetAttributes(attribute.Int("mediator.status_code", commandErr.StatusCode))
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
	}

	return response, err
}
