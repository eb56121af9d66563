package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eskrenkovic/turn-tracker/internal/config"
	"github.com/eskrenkovic/turn-tracker/internal/events"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/notifications"
	"github.com/eskrenkovic/turn-tracker/internal/storage"
	"github.com/eskrenkovic/turn-tracker/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

type Server interface {
	Start() error
	Stop() error
}

var _ Server = &HTTPServer{}

// HTTPServer acts as the composition root for an application.
type HTTPServer struct {
	server *http.Server
	logger *zap.Logger

	store             storage.Store
	bus               *events.Bus
	shutdownTelemetry telemetry.Shutdown
	shutdownTimeout   time.Duration
}

func NewHTTPServer(config config.Config) (*HTTPServer, error) {
	ctx := context.Background()
	logger := config.Logger

	zap.ReplaceGlobals(logger)

	shutdownTelemetry, err := telemetry.Init(ctx, config.Telemetry.ServiceName, config.Telemetry.OTLPEndpoint)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, config.DatabaseURL, config.MigrationsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pushClient, err := newPushClient(config.Push, logger)
	if err != nil {
		return nil, err
	}

	dispatcher, err := notifications.NewDispatcher(store, pushClient, logger, registry)
	if err != nil {
		return nil, err
	}

	var bus *events.Bus
	if config.NATSURL != "" {
		bus, err = events.NewBus(config.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
	}

	if err := registerBehaviors(logger, registry); err != nil {
		return nil, err
	}

	if err := registerHandlers(handlerDependencies{
		store:          store,
		events:         events.NewMediatorEvents(logger),
		dispatcher:     dispatcher,
		bus:            bus,
		vapidPublicKey: pushClient.PublicKey(),
	}); err != nil {
		return nil, err
	}

	server := http.Server{
		Addr:              config.Addr(),
		Handler:           newRouter(config, logger, registry, store),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &HTTPServer{
		server:            &server,
		logger:            logger,
		store:             store,
		bus:               bus,
		shutdownTelemetry: shutdownTelemetry,
		shutdownTimeout:   config.ShutdownTimeout,
	}, nil
}

// Handler exposes the router, used to serve the API from httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)

	s.bus.Close()

	if closeErr := s.store.Close(ctx); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if shutdownErr := s.shutdownTelemetry(ctx); shutdownErr != nil {
		err = errors.Join(err, shutdownErr)
	}

	_ = s.logger.Sync()

	return err
}

// newPushClient falls back to a throwaway key pair so the service runs
// without configuration. Browsers subscribed with it stop receiving
// notifications after a restart.
func newPushClient(config config.PushConfiguration, logger *zap.Logger) (*core.PushClient, error) {
	publicKey, privateKey := config.PublicKey, config.PrivateKey

	if publicKey == "" || privateKey == "" {
		var err error
		publicKey, privateKey, err = core.GenerateVAPIDKeys()
		if err != nil {
			return nil, fmt.Errorf("failed to generate vapid keys: %w", err)
		}

		logger.Warn("VAPID keys not configured, generated an ephemeral pair",
			zap.String("vapid_public_key", publicKey))
	}

	return core.NewPushClient(core.PushConfiguration{
		Subject:    config.Subject,
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		TTL:        config.TTL,
	})
}
