package queries

import (
	"context"
	"net/http"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
)

type GenerateCodeQuery struct{}

type GenerateCodeResponse struct {
	Code string `json:"code"`
}

func HandleGenerateCode(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[GenerateCodeQuery, GenerateCodeResponse](r.Context(), GenerateCodeQuery{})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

// GenerateCodeQueryHandler does not look at existing sessions, a collision
// is rejected when the session is created.
type GenerateCodeQueryHandler struct{}

func NewGenerateCodeQueryHandler() *GenerateCodeQueryHandler {
	return &GenerateCodeQueryHandler{}
}

func (h *GenerateCodeQueryHandler) Handle(context.Context, GenerateCodeQuery) (GenerateCodeResponse, error) {
	code, err := domain.GenerateCode()
	if err != nil {
		return GenerateCodeResponse{}, err
	}

	return GenerateCodeResponse{Code: code}, nil
}
