package domain

import (
	"context"
	"errors"
	"time"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// Subscription is a browser push endpoint. A player has at most one, the
// latest registration wins.
type Subscription struct {
	SteamID   string    `db:"steam_id" json:"steamId"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Repository interface {
	// SaveSubscription replaces any subscription stored for the same steam id.
	SaveSubscription(ctx context.Context, subscription Subscription) error
	GetSubscription(ctx context.Context, steamID string) (Subscription, error)
}
