package queries

import (
	"context"
	"net/http"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
)

type GetVAPIDPublicKeyQuery struct{}

type GetVAPIDPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

func HandleGetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[GetVAPIDPublicKeyQuery, GetVAPIDPublicKeyResponse](
		r.Context(),
		GetVAPIDPublicKeyQuery{},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetVAPIDPublicKeyQueryHandler struct {
	publicKey string
}

func NewGetVAPIDPublicKeyQueryHandler(publicKey string) *GetVAPIDPublicKeyQueryHandler {
	return &GetVAPIDPublicKeyQueryHandler{publicKey: publicKey}
}

func (h *GetVAPIDPublicKeyQueryHandler) Handle(context.Context, GetVAPIDPublicKeyQuery) (GetVAPIDPublicKeyResponse, error) {
	return GetVAPIDPublicKeyResponse{PublicKey: h.publicKey}, nil
}
