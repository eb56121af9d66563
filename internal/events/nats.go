package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"

	"github.com/nats-io/nats.go"
)

const (
	SubjectTurnCompleted = "turns.completed"
	SubjectStatusChanged = "turns.status_changed"
)

// Bus publishes game-session events as JSON on NATS subjects so other
// services can follow games without polling.
type Bus struct {
	conn *nats.Conn
}

func NewBus(url string, opts ...nats.Option) (*Bus, error) {
	opts = append([]nats.Option{
		nats.Name("turn-tracker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	return &Bus{conn: conn}, nil
}

func (b *Bus) Close() {
	if b == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

func (b *Bus) Publish(ctx context.Context, subject string, v any) error {
	if b == nil {
		return errors.New("nil bus")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return b.conn.Publish(subject, data)
}

var _ mediator.NotificationHandler[domain.TurnCompleted] = (*TurnCompletedPublisher)(nil)

type TurnCompletedPublisher struct {
	bus *Bus
}

func NewTurnCompletedPublisher(bus *Bus) *TurnCompletedPublisher {
	return &TurnCompletedPublisher{bus: bus}
}

func (p *TurnCompletedPublisher) Handle(ctx context.Context, event domain.TurnCompleted) error {
	return p.bus.Publish(ctx, SubjectTurnCompleted, event)
}

var _ mediator.NotificationHandler[domain.StatusChanged] = (*StatusChangedPublisher)(nil)

type StatusChangedPublisher struct {
	bus *Bus
}

func NewStatusChangedPublisher(bus *Bus) *StatusChangedPublisher {
	return &StatusChangedPublisher{bus: bus}
}

func (p *StatusChangedPublisher) Handle(ctx context.Context, event domain.StatusChanged) error {
	return p.bus.Publish(ctx, SubjectStatusChanged, event)
}
