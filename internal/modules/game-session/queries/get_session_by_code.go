package queries

import (
	"context"
	"net/http"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	"github.com/go-chi/chi/v5"
)

type GetSessionByCodeQuery struct {
	Code string
}

func (q GetSessionByCodeQuery) Validate() error {
	return core.Validation(core.Required("code", q.Code))
}

func HandleGetSessionByCode(w http.ResponseWriter, r *http.Request) {
	query := GetSessionByCodeQuery{Code: chi.URLParam(r, "code")}

	session, err := mediator.Send[GetSessionByCodeQuery, domain.SessionWithPlayers](r.Context(), query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, session)
}

type GetSessionByCodeQueryHandler struct {
	sessions domain.Repository
}

func NewGetSessionByCodeQueryHandler(sessions domain.Repository) *GetSessionByCodeQueryHandler {
	return &GetSessionByCodeQueryHandler{sessions: sessions}
}

func (h *GetSessionByCodeQueryHandler) Handle(
	ctx context.Context,
	query GetSessionByCodeQuery,
) (domain.SessionWithPlayers, error) {
	session, err := h.sessions.GetSessionByCode(ctx, domain.NormalizeCode(query.Code))
	if err != nil {
		return domain.SessionWithPlayers{}, core.TranslateError(err, errorStatuses)
	}

	return withPlayers(ctx, h.sessions, session)
}
