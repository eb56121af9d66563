package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	gamesession "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	"github.com/eskrenkovic/turn-tracker/internal/modules/notifications/domain"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	outcomeSent    = "sent"
	outcomeSkipped = "skipped"
	outcomeExpired = "expired"
	outcomeFailed  = "failed"
)

type Sender interface {
	Send(ctx context.Context, m core.PushMessage) error
}

// Dispatcher delivers push notifications on a best-effort basis. Nothing it
// does is reported back to the caller.
type Dispatcher struct {
	subscriptions domain.Repository
	sender        Sender
	logger        *zap.Logger
	outcomes      *prometheus.CounterVec
}

func NewDispatcher(
	subscriptions domain.Repository,
	sender Sender,
	logger *zap.Logger,
	registerer prometheus.Registerer,
) (*Dispatcher, error) {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "turn_tracker",
		Name:      "push_notifications_total",
		Help:      "Push notification attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	if err := registerer.Register(outcomes); err != nil {
		return nil, err
	}

	return &Dispatcher{
		subscriptions: subscriptions,
		sender:        sender,
		logger:        logger,
		outcomes:      outcomes,
	}, nil
}

func (d *Dispatcher) Notify(ctx context.Context, steamID, kind string, payload domain.Payload, urgency webpush.Urgency) {
	logger := d.logger.With(append(
		core.ContextFields(ctx),
		zap.String("steam_id", steamID),
		zap.String("kind", kind),
		zap.Int64("game_id", payload.GameID),
	)...)

	defer func() {
		if r := recover(); r != nil {
			d.outcomes.WithLabelValues(kind, outcomeFailed).Inc()
			logger.Error("push notification panicked", zap.Any("panic", r))
		}
	}()

	outcome, err := d.deliver(ctx, steamID, payload, urgency)
	d.outcomes.WithLabelValues(kind, outcome).Inc()

	switch outcome {
	case outcomeSent:
		logger.Debug("push notification sent")
	case outcomeSkipped:
		logger.Debug("no push subscription, skipping notification")
	case outcomeExpired:
		logger.Info("push subscription expired", zap.Error(err))
	default:
		logger.Warn("push notification failed", zap.Error(err))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, steamID string, payload domain.Payload, urgency webpush.Urgency) (string, error) {
	subscription, err := d.subscriptions.GetSubscription(ctx, steamID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to load subscription: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return outcomeFailed, err
	}

	err = d.sender.Send(ctx, core.PushMessage{
		Endpoint: subscription.Endpoint,
		P256dh:   subscription.P256dh,
		Auth:     subscription.Auth,
		Payload:  body,
		Topic:    payload.Tag,
		Urgency:  urgency,
	})

	switch {
	case err == nil:
		return outcomeSent, nil
	case errors.Is(err, core.ErrSubscriptionExpired):
		return outcomeExpired, err
	default:
		return outcomeFailed, err
	}
}

var _ mediator.NotificationHandler[gamesession.TurnCompleted] = (*TurnCompletedHandler)(nil)

// TurnCompletedHandler tells the player who now holds the turn.
type TurnCompletedHandler struct {
	dispatcher *Dispatcher
}

func NewTurnCompletedHandler(dispatcher *Dispatcher) *TurnCompletedHandler {
	return &TurnCompletedHandler{dispatcher: dispatcher}
}

func (h *TurnCompletedHandler) Handle(ctx context.Context, event gamesession.TurnCompleted) error {
	h.dispatcher.Notify(ctx, event.NextPlayer, "turn", domain.TurnPayload(event.Session), webpush.UrgencyHigh)
	return nil
}

var _ mediator.NotificationHandler[gamesession.StatusChanged] = (*StatusChangedHandler)(nil)

// StatusChangedHandler tells the opponent about a status change.
type StatusChangedHandler struct {
	dispatcher *Dispatcher
}

func NewStatusChangedHandler(dispatcher *Dispatcher) *StatusChangedHandler {
	return &StatusChangedHandler{dispatcher: dispatcher}
}

func (h *StatusChangedHandler) Handle(ctx context.Context, event gamesession.StatusChanged) error {
	h.dispatcher.Notify(ctx, event.Opponent, "status", domain.StatusPayload(event.Session, event.Status), webpush.UrgencyNormal)
	return nil
}
