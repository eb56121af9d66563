package domain

import (
	"context"
	"time"
)

// TurnTransition is the compare-and-swap applied on turn completion: the
// session flips away from Expected only if it still holds it.
type TurnTransition struct {
	SessionID   int64
	Expected    Turn
	CompletedBy string
	CompletedAt time.Time
}

type Repository interface {
	// CreateSession stores the session and its status rows atomically,
	// returning the session with its assigned id. ErrCodeInUse on duplicate code.
	CreateSession(ctx context.Context, session GameSession, statuses []PlayerStatus) (GameSession, error)

	GetSession(ctx context.Context, id int64) (GameSession, error)
	GetSessionByCode(ctx context.Context, code string) (GameSession, error)

	ListPlayerStatuses(ctx context.Context, sessionID int64) ([]PlayerStatus, error)
	GetPlayerStatus(ctx context.Context, key PlayerKey) (PlayerStatus, error)

	// EnsurePlayerStatus inserts status unless a row exists for its key and
	// returns whichever row is stored.
	EnsurePlayerStatus(ctx context.Context, status PlayerStatus) (PlayerStatus, error)

	// UpdatePlayerStatus overwrites an existing row. ErrStatusNotFound if absent.
	UpdatePlayerStatus(ctx context.Context, status PlayerStatus) error

	// CompleteTurn flips the turn and stamps the completer's status row as
	// one unit. ErrNotYourTurn when the turn has moved on.
	CompleteTurn(ctx context.Context, transition TurnTransition) (GameSession, error)
}
