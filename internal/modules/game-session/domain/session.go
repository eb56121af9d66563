package domain

import (
	"time"
)

type Turn string

const (
	TurnPlayer1 Turn = "player1"
	TurnPlayer2 Turn = "player2"
)

func (t Turn) Valid() bool {
	return t == TurnPlayer1 || t == TurnPlayer2
}

// Next is the slot that holds the turn after t completes.
func (t Turn) Next() Turn {
	if t == TurnPlayer1 {
		return TurnPlayer2
	}

	return TurnPlayer1
}

type GameSession struct {
	ID             int64     `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	Player1SteamID string    `db:"player1_steam_id" json:"player1SteamId"`
	Player2SteamID string    `db:"player2_steam_id" json:"player2SteamId"`
	CurrentTurn    Turn      `db:"current_turn" json:"currentTurn"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

func NewGameSession(name, code, player1SteamID, player2SteamID string, now time.Time) GameSession {
	return GameSession{
		Code:           code,
		Name:           name,
		Player1SteamID: player1SteamID,
		Player2SteamID: player2SteamID,
		CurrentTurn:    TurnPlayer1,
		CreatedAt:      now,
	}
}

// InitialStatuses are the rows written together with a new session: the
// creator starts ready, the invitee has not confirmed presence yet.
func (s GameSession) InitialStatuses(now time.Time) []PlayerStatus {
	return []PlayerStatus{
		NewPlayerStatus(s.ID, s.Player1SteamID, StatusReady, now),
		NewPlayerStatus(s.ID, s.Player2SteamID, StatusUnavailable, now),
	}
}

// SlotOf reports which slot steamID occupies.
func (s GameSession) SlotOf(steamID string) (Turn, bool) {
	switch steamID {
	case s.Player1SteamID:
		return TurnPlayer1, true
	case s.Player2SteamID:
		return TurnPlayer2, true
	default:
		return "", false
	}
}

func (s GameSession) IsMember(steamID string) bool {
	_, ok := s.SlotOf(steamID)
	return ok
}

func (s GameSession) PlayerIn(slot Turn) string {
	if slot == TurnPlayer1 {
		return s.Player1SteamID
	}

	return s.Player2SteamID
}

// Opponent returns the other member of the session.
func (s GameSession) Opponent(steamID string) (string, bool) {
	slot, ok := s.SlotOf(steamID)
	if !ok {
		return "", false
	}

	return s.PlayerIn(slot.Next()), true
}

// CheckTurn verifies steamID holds the turn and returns the slot it completes.
func (s GameSession) CheckTurn(steamID string) (Turn, error) {
	slot, ok := s.SlotOf(steamID)
	if !ok || slot != s.CurrentTurn {
		return "", ErrNotYourTurn
	}

	return slot, nil
}

type SessionWithPlayers struct {
	GameSession
	Player1Status *PlayerStatus `json:"player1Status"`
	Player2Status *PlayerStatus `json:"player2Status"`
}

func WithPlayers(session GameSession, statuses []PlayerStatus) SessionWithPlayers {
	result := SessionWithPlayers{GameSession: session}

	for i := range statuses {
		status := statuses[i]
		switch status.SteamID {
		case session.Player1SteamID:
			result.Player1Status = &status
		case session.Player2SteamID:
			result.Player2Status = &status
		}
	}

	return result
}

// Now is the timestamp used for every write, truncated to what the SQL
// backends store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
