package config_test

import (
	"testing"
	"time"

	"github.com/eskrenkovic/turn-tracker/internal/config"

	"github.com/stretchr/testify/require"
)

func Test_Load_Applies_Defaults(t *testing.T) {
	// Act
	conf, err := config.Load()

	// Assert
	require.NoError(t, err)
	require.NotNil(t, conf.Logger)
	require.Equal(t, 8080, conf.Port)
	require.Equal(t, "memory://", conf.DatabaseURL)
	require.Equal(t, []string{"*"}, conf.CORSAllowedOrigins)
	require.Equal(t, 120, conf.RateLimitPerMinute)
	require.Equal(t, 24*time.Hour, conf.Push.TTL)
	require.Equal(t, "turn-tracker", conf.Telemetry.ServiceName)
	require.Equal(t, ":8080", conf.Addr())
}

func Test_Load_Reads_Environment(t *testing.T) {
	// Arrange
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://turns@localhost/turns")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("VAPID_PUBLIC_KEY", "public")
	t.Setenv("VAPID_PRIVATE_KEY", "private")
	t.Setenv("VAPID_TTL", "1h")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	// Act
	conf, err := config.Load()

	// Assert
	require.NoError(t, err)
	require.Equal(t, 9000, conf.Port)
	require.Equal(t, "postgres://turns@localhost/turns", conf.DatabaseURL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, conf.CORSAllowedOrigins)
	require.Equal(t, "public", conf.Push.PublicKey)
	require.Equal(t, "private", conf.Push.PrivateKey)
	require.Equal(t, time.Hour, conf.Push.TTL)
	require.Equal(t, "localhost:4318", conf.Telemetry.OTLPEndpoint)
}

func Test_Load_Rejects_Unknown_Log_Level(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := config.Load()

	require.Error(t, err)
}
