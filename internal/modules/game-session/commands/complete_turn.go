package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
)

type CompleteTurnCommand struct {
	GameSessionID int64  `json:"gameSessionId"`
	SteamID       string `json:"steamId"`
}

func (c CompleteTurnCommand) Validate() error {
	return core.Validation(
		core.Check(c.GameSessionID > 0, errors.New("gameSessionId is required")),
		core.Required("steamId", c.SteamID),
	)
}

func HandleCompleteTurn(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[CompleteTurnCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	session, err := mediator.Send[CompleteTurnCommand, domain.SessionWithPlayers](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, session)
}

type CompleteTurnCommandHandler struct {
	sessions domain.Repository
	events   domain.Events
}

func NewCompleteTurnCommandHandler(sessions domain.Repository, events domain.Events) *CompleteTurnCommandHandler {
	return &CompleteTurnCommandHandler{sessions: sessions, events: events}
}

func (h *CompleteTurnCommandHandler) Handle(
	ctx context.Context,
	command CompleteTurnCommand,
) (domain.SessionWithPlayers, error) {
	session, err := h.sessions.GetSession(ctx, command.GameSessionID)
	if err != nil {
		return domain.SessionWithPlayers{}, translate(err)
	}

	slot, err := session.CheckTurn(command.SteamID)
	if err != nil {
		return domain.SessionWithPlayers{}, translate(err)
	}

	// The repository re-checks the turn, a concurrent completion loses here.
	completedAt := domain.Now()
	updated, err := h.sessions.CompleteTurn(ctx, domain.TurnTransition{
		SessionID:   session.ID,
		Expected:    slot,
		CompletedBy: command.SteamID,
		CompletedAt: completedAt,
	})
	if err != nil {
		return domain.SessionWithPlayers{}, translate(err)
	}

	statuses, err := h.sessions.ListPlayerStatuses(ctx, updated.ID)
	if err != nil {
		return domain.SessionWithPlayers{}, translate(err)
	}

	h.events.TurnCompleted(ctx, domain.TurnCompleted{
		Session:     updated,
		CompletedBy: command.SteamID,
		NextPlayer:  updated.PlayerIn(updated.CurrentTurn),
		CompletedAt: completedAt,
	})

	return domain.WithPlayers(updated, statuses), nil
}
