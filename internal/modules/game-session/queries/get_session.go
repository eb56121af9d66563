package queries

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	"github.com/go-chi/chi/v5"
)

var errorStatuses = []core.ErrorStatus{
	{Err: domain.ErrSessionNotFound, StatusCode: http.StatusNotFound},
}

type GetSessionQuery struct {
	ID int64
}

func (q GetSessionQuery) Validate() error {
	return core.Check(q.ID > 0, errors.New("invalid game id"))
}

func HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		core.WriteBadRequest(w, r, errors.New("invalid game id"))
		return
	}

	session, err := mediator.Send[GetSessionQuery, domain.SessionWithPlayers](r.Context(), GetSessionQuery{ID: id})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, session)
}

type GetSessionQueryHandler struct {
	sessions domain.Repository
}

func NewGetSessionQueryHandler(sessions domain.Repository) *GetSessionQueryHandler {
	return &GetSessionQueryHandler{sessions: sessions}
}

func (h *GetSessionQueryHandler) Handle(ctx context.Context, query GetSessionQuery) (domain.SessionWithPlayers, error) {
	session, err := h.sessions.GetSession(ctx, query.ID)
	if err != nil {
		return domain.SessionWithPlayers{}, core.TranslateError(err, errorStatuses)
	}

	return withPlayers(ctx, h.sessions, session)
}

func withPlayers(ctx context.Context, sessions domain.Repository, session domain.GameSession) (domain.SessionWithPlayers, error) {
	statuses, err := sessions.ListPlayerStatuses(ctx, session.ID)
	if err != nil {
		return domain.SessionWithPlayers{}, err
	}

	return domain.WithPlayers(session, statuses), nil
}
