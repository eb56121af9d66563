package domain

import (
	"context"
	"time"
)

type TurnCompleted struct {
	Session     GameSession `json:"session"`
	CompletedBy string      `json:"completedBy"`
	NextPlayer  string      `json:"nextPlayer"`
	CompletedAt time.Time   `json:"completedAt"`
}

type StatusChanged struct {
	Session  GameSession  `json:"session"`
	Status   PlayerStatus `json:"status"`
	Opponent string       `json:"opponent"`
}

// Events is notified after a state change has been committed. Implementations
// must not fail the operation that raised the event.
type Events interface {
	TurnCompleted(ctx context.Context, event TurnCompleted)
	StatusChanged(ctx context.Context, event StatusChanged)
}
