package server

import (
	"context"
	"net/http"
	"time"

	"github.com/eskrenkovic/turn-tracker/internal/config"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	gamesessioncommands "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/commands"
	gamesessionqueries "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/queries"
	notificationscommands "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/commands"
	notificationsqueries "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/queries"
	"github.com/eskrenkovic/turn-tracker/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(config config.Config, logger *zap.Logger, registry *prometheus.Registry, store pinger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(core.CorrelationIDHTTPMiddleware)
	r.Use(telemetry.Middleware(config.Telemetry.ServiceName, logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", core.CorrelationIDHeader},
		ExposedHeaders: []string{"Location", core.CorrelationIDHeader},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("storage unavailable"))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if config.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(config.RateLimitPerMinute, time.Minute))
		}

		// game-session
		r.Post("/game", gamesessioncommands.HandleCreateSession)
		r.Post("/game/join", gamesessioncommands.HandleJoinSession)
		r.Get("/game/{id}", gamesessionqueries.HandleGetSession)
		r.Get("/game/code/{code}", gamesessionqueries.HandleGetSessionByCode)
		r.Get("/generate-code", gamesessionqueries.HandleGenerateCode)
		r.Post("/status", gamesessioncommands.HandleUpdateStatus)
		r.Post("/complete-turn", gamesessioncommands.HandleCompleteTurn)

		// notifications
		r.Get("/vapid-public-key", notificationsqueries.HandleGetVAPIDPublicKey)
		r.Post("/subscribe", notificationscommands.HandleSaveSubscription)
	})

	return r
}
