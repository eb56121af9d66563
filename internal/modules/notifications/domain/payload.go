package domain

import (
	"fmt"

	gamesession "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
)

type Payload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Tag    string `json:"tag"`
	GameID int64  `json:"gameId"`
}

func TurnPayload(session gamesession.GameSession) Payload {
	return Payload{
		Title:  "It's your turn!",
		Body:   fmt.Sprintf("Your opponent completed their turn in %s. It's your turn now.", session.Name),
		Tag:    fmt.Sprintf("game-%d-turn", session.ID),
		GameID: session.ID,
	}
}

func StatusPayload(session gamesession.GameSession, status gamesession.PlayerStatus) Payload {
	body := fmt.Sprintf("Your opponent in %s is now %s.", session.Name, status.Status)
	if status.Message != nil && *status.Message != "" {
		body = fmt.Sprintf("%s %q", body, *status.Message)
	}

	return Payload{
		Title:  "Opponent status changed",
		Body:   body,
		Tag:    fmt.Sprintf("game-%d-status", session.ID),
		GameID: session.ID,
	}
}
