package domain

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusReady       Status = "ready"
	StatusBusy        Status = "busy"
	StatusUnavailable Status = "unavailable"
)

func ParseStatus(value string) (Status, error) {
	switch s := Status(value); s {
	case StatusReady, StatusBusy, StatusUnavailable:
		return s, nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrInvalidStatus, value)
	}
}

// PlayerKey identifies one player's status row within a session.
type PlayerKey struct {
	GameSessionID int64
	SteamID       string
}

type PlayerStatus struct {
	GameSessionID     int64      `db:"game_session_id" json:"gameSessionId"`
	SteamID           string     `db:"steam_id" json:"steamId"`
	Status            Status     `db:"status" json:"status"`
	Message           *string    `db:"message" json:"message"`
	LastTurnCompleted *time.Time `db:"last_turn_completed" json:"lastTurnCompleted"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

func NewPlayerStatus(sessionID int64, steamID string, status Status, now time.Time) PlayerStatus {
	return PlayerStatus{
		GameSessionID: sessionID,
		SteamID:       steamID,
		Status:        status,
		UpdatedAt:     now,
	}
}

func (p PlayerStatus) Key() PlayerKey {
	return PlayerKey{GameSessionID: p.GameSessionID, SteamID: p.SteamID}
}

// Apply overwrites the status and, only when one is supplied, the message.
func (p PlayerStatus) Apply(status Status, message *string, now time.Time) PlayerStatus {
	p.Status = status
	if message != nil {
		m := *message
		p.Message = &m
	}
	p.UpdatedAt = now

	return p
}

// CompleteTurn stamps the completion time on the status row.
func (p PlayerStatus) CompleteTurn(now time.Time) PlayerStatus {
	completed := now
	p.LastTurnCompleted = &completed
	p.UpdatedAt = now

	return p
}
