package commands

import (
	"context"
	"net/http"
	"strings"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
)

type JoinSessionCommand struct {
	Code    string `json:"code"`
	SteamID string `json:"steamId"`
}

func (c JoinSessionCommand) Validate() error {
	return core.Validation(
		core.Required("code", c.Code),
		core.Required("steamId", c.SteamID),
	)
}

type JoinSessionResponse struct {
	GameSession  domain.GameSession  `json:"gameSession"`
	PlayerStatus domain.PlayerStatus `json:"playerStatus"`
}

func HandleJoinSession(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[JoinSessionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	response, err := mediator.Send[JoinSessionCommand, JoinSessionResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type JoinSessionCommandHandler struct {
	sessions domain.Repository
}

func NewJoinSessionCommandHandler(sessions domain.Repository) *JoinSessionCommandHandler {
	return &JoinSessionCommandHandler{sessions: sessions}
}

// Handle is idempotent: a player who already has a status row gets it back unchanged.
func (h *JoinSessionCommandHandler) Handle(
	ctx context.Context,
	command JoinSessionCommand,
) (JoinSessionResponse, error) {
	steamID := strings.TrimSpace(command.SteamID)

	session, err := h.sessions.GetSessionByCode(ctx, domain.NormalizeCode(command.Code))
	if err != nil {
		return JoinSessionResponse{}, translate(err)
	}

	if !session.IsMember(steamID) {
		return JoinSessionResponse{}, translate(domain.ErrNotAMember)
	}

	status, err := h.sessions.EnsurePlayerStatus(
		ctx,
		domain.NewPlayerStatus(session.ID, steamID, domain.StatusReady, domain.Now()),
	)
	if err != nil {
		return JoinSessionResponse{}, translate(err)
	}

	return JoinSessionResponse{GameSession: session, PlayerStatus: status}, nil
}
