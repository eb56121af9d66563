package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	gamesession "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	"github.com/eskrenkovic/turn-tracker/internal/modules/notifications"
	"github.com/eskrenkovic/turn-tracker/internal/modules/notifications/domain"
	"github.com/eskrenkovic/turn-tracker/internal/storage/memory"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSender struct {
	mu       sync.Mutex
	err      error
	panics   bool
	messages []core.PushMessage
}

func (s *fakeSender) Send(_ context.Context, m core.PushMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.panics {
		panic("sender exploded")
	}

	s.messages = append(s.messages, m)
	return s.err
}

type fixture struct {
	store      *memory.Store
	sender     *fakeSender
	dispatcher *notifications.Dispatcher
	registry   *prometheus.Registry
	logs       *observer.ObservedLogs
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	observed, logs := observer.New(zapcore.DebugLevel)
	registry := prometheus.NewRegistry()
	store := memory.New()
	sender := &fakeSender{}

	dispatcher, err := notifications.NewDispatcher(store, sender, zap.New(observed), registry)
	require.NoError(t, err)

	return fixture{
		store:      store,
		sender:     sender,
		dispatcher: dispatcher,
		registry:   registry,
		logs:       logs,
	}
}

func (f fixture) subscribe(t *testing.T, steamID string) {
	t.Helper()

	require.NoError(t, f.store.SaveSubscription(context.Background(), domain.Subscription{
		SteamID:  steamID,
		Endpoint: "https://push.example.com/" + steamID,
		P256dh:   "p256dh",
		Auth:     "auth",
	}))
}

func (f fixture) outcomes(t *testing.T, kind, outcome string) float64 {
	t.Helper()

	families, err := f.registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != "turn_tracker_push_notifications_total" {
			continue
		}

		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}

			if labels["kind"] == kind && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}

	return 0
}

var session = gamesession.GameSession{
	ID:             3,
	Name:           "Pangaea",
	Code:           "ABC123",
	Player1SteamID: "alice",
	Player2SteamID: "bob",
	CurrentTurn:    gamesession.TurnPlayer2,
}

func Test_TurnCompletedHandler_Notifies_Next_Player(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.subscribe(t, "bob")

	// Act
	err := notifications.NewTurnCompletedHandler(f.dispatcher).Handle(context.Background(), gamesession.TurnCompleted{
		Session:     session,
		CompletedBy: "alice",
		NextPlayer:  "bob",
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, f.sender.messages, 1)

	message := f.sender.messages[0]
	require.Equal(t, "https://push.example.com/bob", message.Endpoint)
	require.Equal(t, webpush.UrgencyHigh, message.Urgency)
	require.Equal(t, "game-3-turn", message.Topic)

	var payload domain.Payload
	require.NoError(t, json.Unmarshal(message.Payload, &payload))
	require.Equal(t, "It's your turn!", payload.Title)
	require.Equal(t, "Your opponent completed their turn in Pangaea. It's your turn now.", payload.Body)
	require.Equal(t, int64(3), payload.GameID)

	require.Equal(t, float64(1), f.outcomes(t, "turn", "sent"))
}

func Test_StatusChangedHandler_Notifies_Opponent(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.subscribe(t, "alice")

	message := "back after dinner"
	status := gamesession.NewPlayerStatus(session.ID, "bob", gamesession.StatusBusy, gamesession.Now())
	status.Message = &message

	// Act
	err := notifications.NewStatusChangedHandler(f.dispatcher).Handle(context.Background(), gamesession.StatusChanged{
		Session:  session,
		Status:   status,
		Opponent: "alice",
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, f.sender.messages, 1)
	require.Equal(t, webpush.UrgencyNormal, f.sender.messages[0].Urgency)

	var payload domain.Payload
	require.NoError(t, json.Unmarshal(f.sender.messages[0].Payload, &payload))
	require.Equal(t, "Opponent status changed", payload.Title)
	require.Equal(t, `Your opponent in Pangaea is now busy. "back after dinner"`, payload.Body)
	require.Equal(t, "game-3-status", payload.Tag)
}

func Test_Notify_Skips_Players_Without_Subscription(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	f.dispatcher.Notify(context.Background(), "bob", "turn", domain.TurnPayload(session), webpush.UrgencyHigh)

	// Assert
	require.Empty(t, f.sender.messages)
	require.Equal(t, float64(1), f.outcomes(t, "turn", "skipped"))
}

func Test_Notify_Swallows_Delivery_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
		level   zapcore.Level
	}{
		{"expired", core.ErrSubscriptionExpired, "expired", zapcore.InfoLevel},
		{"rejected", core.PushDeliveryError{StatusCode: 500, Body: "boom"}, "failed", zapcore.WarnLevel},
		{"transport", errors.New("connection reset"), "failed", zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t)
			f.subscribe(t, "bob")
			f.sender.err = tt.err

			// Act
			f.dispatcher.Notify(context.Background(), "bob", "turn", domain.TurnPayload(session), webpush.UrgencyHigh)

			// Assert
			require.Equal(t, float64(1), f.outcomes(t, "turn", tt.outcome))
			require.Equal(t, 1, f.logs.FilterLevelExact(tt.level).Len())
		})
	}
}

func Test_Notify_Recovers_From_Sender_Panic(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.subscribe(t, "bob")
	f.sender.panics = true

	// Act
	require.NotPanics(t, func() {
		f.dispatcher.Notify(context.Background(), "bob", "turn", domain.TurnPayload(session), webpush.UrgencyHigh)
	})

	// Assert
	require.Equal(t, float64(1), f.outcomes(t, "turn", "failed"))
	require.Equal(t, 1, f.logs.FilterMessage("push notification panicked").Len())
}

func Test_NewDispatcher_Fails_On_Duplicate_Registration(t *testing.T) {
	// Arrange
	registry := prometheus.NewRegistry()
	_, err := notifications.NewDispatcher(memory.New(), &fakeSender{}, zap.NewNop(), registry)
	require.NoError(t, err)

	// Act
	_, err = notifications.NewDispatcher(memory.New(), &fakeSender{}, zap.NewNop(), registry)

	// Assert
	require.Error(t, err)
}
