package commands

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	gamesession "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	"github.com/eskrenkovic/turn-tracker/internal/modules/notifications/domain"

	webpush "github.com/SherClockHolmes/webpush-go"
)

type SaveSubscriptionCommand struct {
	SteamID      string               `json:"steamId"`
	Subscription webpush.Subscription `json:"subscription"`
}

func (c SaveSubscriptionCommand) Validate() error {
	return core.Validation(
		core.Required("steamId", c.SteamID),
		validateEndpoint(c.Subscription.Endpoint),
		core.Required("subscription.keys.p256dh", c.Subscription.Keys.P256dh),
		core.Required("subscription.keys.auth", c.Subscription.Keys.Auth),
	)
}

func validateEndpoint(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return errors.New("subscription.endpoint is required")
	}

	u, err := url.Parse(endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New("subscription.endpoint must be an absolute URL")
	}

	return nil
}

type SaveSubscriptionResponse struct {
	Message string `json:"message"`
}

func HandleSaveSubscription(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[SaveSubscriptionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	response, err := mediator.Send[SaveSubscriptionCommand, SaveSubscriptionResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteCreated(w, r, "", response)
}

type SaveSubscriptionCommandHandler struct {
	subscriptions domain.Repository
}

func NewSaveSubscriptionCommandHandler(subscriptions domain.Repository) *SaveSubscriptionCommandHandler {
	return &SaveSubscriptionCommandHandler{subscriptions: subscriptions}
}

func (h *SaveSubscriptionCommandHandler) Handle(
	ctx context.Context,
	command SaveSubscriptionCommand,
) (SaveSubscriptionResponse, error) {
	subscription := domain.Subscription{
		SteamID:   strings.TrimSpace(command.SteamID),
		Endpoint:  command.Subscription.Endpoint,
		P256dh:    command.Subscription.Keys.P256dh,
		Auth:      command.Subscription.Keys.Auth,
		CreatedAt: gamesession.Now(),
	}

	if err := h.subscriptions.SaveSubscription(ctx, subscription); err != nil {
		return SaveSubscriptionResponse{}, err
	}

	return SaveSubscriptionResponse{Message: "Subscription saved"}, nil
}
