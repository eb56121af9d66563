package server

import (
	"github.com/eskrenkovic/turn-tracker/internal/events"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	gamesessioncommands "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/commands"
	gamesessiondomain "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	gamesessionqueries "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/queries"
	"github.com/eskrenkovic/turn-tracker/internal/modules/notifications"
	notificationscommands "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/commands"
	notificationsqueries "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/queries"
	"github.com/eskrenkovic/turn-tracker/internal/storage"

	"github.com/eskrenkovic/mediator-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func registerBehaviors(logger *zap.Logger, registerer prometheus.Registerer) error {
	requestMetricsBehavior, err := core.NewRequestMetricsBehavior(registerer)
	if err != nil {
		return err
	}

	mediator.RegisterPipelineBehavior(core.NewRequestTracingBehavior())
	mediator.RegisterPipelineBehavior(&core.RequestLoggingBehavior{Logger: logger})
	mediator.RegisterPipelineBehavior(&core.HandlerErrorLoggingBehavior{Logger: logger})
	mediator.RegisterPipelineBehavior(requestMetricsBehavior)
	mediator.RegisterPipelineBehavior(&core.RequestValidationBehavior{})

	return nil
}

type handlerDependencies struct {
	store          storage.Store
	events         gamesessiondomain.Events
	dispatcher     *notifications.Dispatcher
	bus            *events.Bus
	vapidPublicKey string
}

func registerHandlers(deps handlerDependencies) error {
	// game-session

	err := mediator.RegisterRequestHandler[gamesessioncommands.CreateSessionCommand, gamesessiondomain.GameSession](
		gamesessioncommands.NewCreateSessionCommandHandler(deps.store),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[gamesessioncommands.JoinSessionCommand, gamesessioncommands.JoinSessionResponse](
		gamesessioncommands.NewJoinSessionCommandHandler(deps.store),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[gamesessioncommands.UpdateStatusCommand, gamesessiondomain.PlayerStatus](
		gamesessioncommands.NewUpdateStatusCommandHandler(deps.store, deps.events),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[gamesessioncommands.CompleteTurnCommand, gamesessiondomain.SessionWithPlayers](
		gamesessioncommands.NewCompleteTurnCommandHandler(deps.store, deps.events),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[gamesessionqueries.GetSessionQuery, gamesessiondomain.SessionWithPlayers](
		gamesessionqueries.NewGetSessionQueryHandler(deps.store),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[gamesessionqueries.GetSessionByCodeQuery, gamesessiondomain.SessionWithPlayers](
		gamesessionqueries.NewGetSessionByCodeQueryHandler(deps.store),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[gamesessionqueries.GenerateCodeQuery, gamesessionqueries.GenerateCodeResponse](
		gamesessionqueries.NewGenerateCodeQueryHandler(),
	)
	if err != nil {
		return err
	}

	// notifications

	err = mediator.RegisterRequestHandler[notificationscommands.SaveSubscriptionCommand, notificationscommands.SaveSubscriptionResponse](
		notificationscommands.NewSaveSubscriptionCommandHandler(deps.store),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[notificationsqueries.GetVAPIDPublicKeyQuery, notificationsqueries.GetVAPIDPublicKeyResponse](
		notificationsqueries.NewGetVAPIDPublicKeyQueryHandler(deps.vapidPublicKey),
	)
	if err != nil {
		return err
	}

	// events

	mediator.RegisterNotificationHandler[gamesessiondomain.TurnCompleted](notifications.NewTurnCompletedHandler(deps.dispatcher))
	mediator.RegisterNotificationHandler[gamesessiondomain.StatusChanged](notifications.NewStatusChangedHandler(deps.dispatcher))

	if deps.bus != nil {
		mediator.RegisterNotificationHandler[gamesessiondomain.TurnCompleted](events.NewTurnCompletedPublisher(deps.bus))
		mediator.RegisterNotificationHandler[gamesessiondomain.StatusChanged](events.NewStatusChangedPublisher(deps.bus))
	}

	return nil
}
