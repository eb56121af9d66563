package core

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi/v5/middleware"

	"go.uber.org/zap"
)

// ContextFields returns the request and correlation ids carried by ctx.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field

	if requestID := middleware.GetReqID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	if correlationID, ok := ctx.Value(CorrelationIDContextKey).(string); ok && correlationID != "" {
		fields = append(fields, zap.String("correlation_id", correlationID))
	}

	return fields
}

// LogError logs through the global zap logger with the ids from ctx attached.
func LogError(ctx context.Context, msg string, fields ...zap.Field) {
	zap.L().Error(msg, append(ContextFields(ctx), fields...)...)
}

func requestName(request interface{}) string {
	return fmt.Sprintf("%T", request)
}

var _ mediator.PipelineBehavior = (*RequestLoggingBehavior)(nil)

type RequestLoggingBehavior struct {
	Logger *zap.Logger
}

func (b *RequestLoggingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	logFields := ContextFields(ctx)
	logFields = append(logFields, zap.String("request_type", requestName(request)))

	if request != nil {
		logFields = append(logFields, zap.Any("request_body", request))
	}

	b.Logger.Info("processing request", logFields...)

	return next(ctx, request)
}

var _ mediator.PipelineBehavior = (*HandlerErrorLoggingBehavior)(nil)

type HandlerErrorLoggingBehavior struct {
	Logger *zap.Logger
}

func (b *HandlerErrorLoggingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	response, err := next(ctx, request)
	if err == nil {
		return response, nil
	}

	fields := append(ContextFields(ctx), zap.String("request_type", requestName(request)), zap.Error(err))

	// Business rule rejections are expected traffic.
	if commandErr, ok := AsCommandError(err); ok && commandErr.StatusCode < 500 {
		b.Logger.Info("request rejected", append(fields, zap.Int("status_code", commandErr.StatusCode))...)
		return response, err
	}

	b.Logger.Error("handler returned error", fields...)
	return response, err
}
