package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/eskrenkovic/turn-tracker/internal/env"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type PushConfiguration struct {
	PublicKey  string        `env:"PUBLIC_KEY"`
	PrivateKey string        `env:"PRIVATE_KEY"`
	Subject    string        `env:"SUBJECT" envDefault:"mailto:admin@localhost"`
	TTL        time.Duration `env:"TTL" envDefault:"24h"`
}

type TelemetryConfiguration struct {
	ServiceName  string `env:"SERVICE_NAME" envDefault:"turn-tracker"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type Config struct {
	Logger *zap.Logger `env:"-"`

	Port           int    `env:"PORT" envDefault:"8080"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"memory://"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"db/migrations"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	NATSURL        string `env:"NATS_URL"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Push      PushConfiguration      `envPrefix:"VAPID_"`
	Telemetry TelemetryConfiguration
}

func (c Config) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// Load reads the configuration from the environment and builds the logger.
func Load() (Config, error) {
	config, err := env.Parse[Config]()
	if err != nil {
		return Config{}, err
	}

	logger, err := NewLogger(config.LogLevel)
	if err != nil {
		return Config{}, err
	}

	config.Logger = logger
	return config, nil
}

func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL '%s': %w", level, err)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(lvl)
	loggerConfig.EncoderConfig.TimeKey = "time"
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return loggerConfig.Build()
}
