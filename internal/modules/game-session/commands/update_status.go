package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
)

type UpdateStatusCommand struct {
	GameSessionID int64  `json:"gameSessionId"`
	SteamID       string `json:"steamId"`
	Status        string `json:"status"`

	// Nil keeps the stored message, an empty string clears it.
	Message *string `json:"message,omitempty"`
}

func (c UpdateStatusCommand) Validate() error {
	_, statusErr := domain.ParseStatus(c.Status)

	return core.Validation(
		core.Check(c.GameSessionID > 0, errors.New("gameSessionId is required")),
		core.Required("steamId", c.SteamID),
		statusErr,
	)
}

func HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[UpdateStatusCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	status, err := mediator.Send[UpdateStatusCommand, domain.PlayerStatus](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, status)
}

type UpdateStatusCommandHandler struct {
	sessions domain.Repository
	events   domain.Events
}

func NewUpdateStatusCommandHandler(sessions domain.Repository, events domain.Events) *UpdateStatusCommandHandler {
	return &UpdateStatusCommandHandler{sessions: sessions, events: events}
}

func (h *UpdateStatusCommandHandler) Handle(
	ctx context.Context,
	command UpdateStatusCommand,
) (domain.PlayerStatus, error) {
	status, err := domain.ParseStatus(command.Status)
	if err != nil {
		return domain.PlayerStatus{}, translate(err)
	}

	session, err := h.sessions.GetSession(ctx, command.GameSessionID)
	if err != nil {
		return domain.PlayerStatus{}, translate(err)
	}

	opponent, ok := session.Opponent(command.SteamID)
	if !ok {
		return domain.PlayerStatus{}, translate(domain.ErrNotAMember)
	}

	// Status rows are created by create and join only.
	current, err := h.sessions.GetPlayerStatus(ctx, domain.PlayerKey{
		GameSessionID: session.ID,
		SteamID:       command.SteamID,
	})
	if err != nil {
		return domain.PlayerStatus{}, translate(err)
	}

	updated := current.Apply(status, command.Message, domain.Now())
	if err := h.sessions.UpdatePlayerStatus(ctx, updated); err != nil {
		return domain.PlayerStatus{}, translate(err)
	}

	h.events.StatusChanged(ctx, domain.StatusChanged{
		Session:  session,
		Status:   updated,
		Opponent: opponent,
	})

	return updated, nil
}
