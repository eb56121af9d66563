package events

import (
	"context"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"

	"go.uber.org/zap"
)

var _ domain.Events = (*MediatorEvents)(nil)

// MediatorEvents fans committed game-session events out to the mediator
// notification handlers. Handler failures are logged and dropped.
type MediatorEvents struct {
	logger *zap.Logger
}

func NewMediatorEvents(logger *zap.Logger) *MediatorEvents {
	return &MediatorEvents{logger: logger}
}

func (e *MediatorEvents) TurnCompleted(ctx context.Context, event domain.TurnCompleted) {
	publish(ctx, e.logger, event)
}

func (e *MediatorEvents) StatusChanged(ctx context.Context, event domain.StatusChanged) {
	publish(ctx, e.logger, event)
}

func publish[TEvent any](ctx context.Context, logger *zap.Logger, event TEvent) {
	fields := core.ContextFields(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked", append(fields, zap.Any("panic", r))...)
		}
	}()

	if err := mediator.Publish(ctx, event); err != nil {
		logger.Warn("event handlers failed", append(fields, zap.Error(err))...)
	}
}
