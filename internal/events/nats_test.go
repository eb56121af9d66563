package events_test

import (
	"context"
	"testing"

	"github.com/eskrenkovic/turn-tracker/internal/events"

	"github.com/stretchr/testify/require"
)

func Test_NilBus_Close_Is_Noop(t *testing.T) {
	var bus *events.Bus

	require.NotPanics(t, bus.Close)
	require.Error(t, bus.Publish(context.Background(), events.SubjectTurnCompleted, struct{}{}))
}

func Test_NewBus_Fails_Without_Server(t *testing.T) {
	_, err := events.NewBus("nats://127.0.0.1:1")

	require.Error(t, err)
}
