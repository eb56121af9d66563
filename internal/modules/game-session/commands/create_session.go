package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
)

type CreateSessionCommand struct {
	Name           string `json:"name"`
	Code           string `json:"code"`
	Player1SteamID string `json:"player1SteamId"`
	Player2SteamID string `json:"player2SteamId"`

	// Accepted for older clients, every session starts on player1.
	CurrentTurn string `json:"currentTurn,omitempty"`
}

func (c CreateSessionCommand) Validate() error {
	player1 := strings.TrimSpace(c.Player1SteamID)
	player2 := strings.TrimSpace(c.Player2SteamID)

	var codeErr error
	if strings.TrimSpace(c.Code) == "" {
		codeErr = errors.New("code is required")
	} else {
		codeErr = domain.ValidateCode(domain.NormalizeCode(c.Code))
	}

	return core.Validation(
		core.Required("name", c.Name),
		codeErr,
		core.Required("player1SteamId", player1),
		core.Required("player2SteamId", player2),
		core.Check(player1 == "" || player1 != player2, errors.New("player1SteamId and player2SteamId must differ")),
	)
}

func HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[CreateSessionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	session, err := mediator.Send[CreateSessionCommand, domain.GameSession](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteCreated(w, r, fmt.Sprintf("/game/%d", session.ID), session)
}

type CreateSessionCommandHandler struct {
	sessions domain.Repository
}

func NewCreateSessionCommandHandler(sessions domain.Repository) *CreateSessionCommandHandler {
	return &CreateSessionCommandHandler{sessions: sessions}
}

func (h *CreateSessionCommandHandler) Handle(
	ctx context.Context,
	command CreateSessionCommand,
) (domain.GameSession, error) {
	now := domain.Now()

	session := domain.NewGameSession(
		strings.TrimSpace(command.Name),
		domain.NormalizeCode(command.Code),
		strings.TrimSpace(command.Player1SteamID),
		strings.TrimSpace(command.Player2SteamID),
		now,
	)

	created, err := h.sessions.CreateSession(ctx, session, session.InitialStatuses(now))
	if err != nil {
		return domain.GameSession{}, translate(err)
	}

	return created, nil
}
