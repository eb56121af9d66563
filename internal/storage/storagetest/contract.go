// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gamesession "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	notifications "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Store interface {
	gamesession.Repository
	notifications.Repository
}

// Run exercises store against the repository contract. Backends shared
// between subtests are fine, every subtest uses fresh codes and steam ids.
func Run(t *testing.T, store Store) {
	t.Helper()

	t.Run("CreateSession_Assigns_ID_And_Initial_Statuses", func(t *testing.T) {
		testCreateSession(t, store)
	})
	t.Run("CreateSession_Rejects_Duplicate_Code", func(t *testing.T) {
		testDuplicateCode(t, store)
	})
	t.Run("Get_Returns_Not_Found_For_Missing_Rows", func(t *testing.T) {
		testNotFound(t, store)
	})
	t.Run("EnsurePlayerStatus_Keeps_Existing_Row", func(t *testing.T) {
		testEnsurePlayerStatus(t, store)
	})
	t.Run("UpdatePlayerStatus_Overwrites_Status_And_Message", func(t *testing.T) {
		testUpdatePlayerStatus(t, store)
	})
	t.Run("UpdatePlayerStatus_Keeps_Turn_Completion_Stamp", func(t *testing.T) {
		testUpdatePlayerStatusAfterCompleteTurn(t, store)
	})
	t.Run("CompleteTurn_Flips_Turn_And_Stamps_Completer", func(t *testing.T) {
		testCompleteTurn(t, store)
	})
	t.Run("CompleteTurn_Rejects_Stale_Turn", func(t *testing.T) {
		testCompleteTurnStale(t, store)
	})
	t.Run("CompleteTurn_Has_Exactly_One_Concurrent_Winner", func(t *testing.T) {
		testCompleteTurnConcurrent(t, store)
	})
	t.Run("CompleteTurn_Succeeds_Despite_Opponent_Status_Writes", func(t *testing.T) {
		testCompleteTurnWithOpponentWrites(t, store)
	})
	t.Run("SaveSubscription_Replaces_Previous_Subscription", func(t *testing.T) {
		testSaveSubscription(t, store)
	})
}

// NewSession creates a session with unique players and code.
func NewSession(t *testing.T, store gamesession.Repository) gamesession.GameSession {
	t.Helper()

	code, err := gamesession.GenerateCode()
	require.NoError(t, err)

	now := gamesession.Now()
	session := gamesession.NewGameSession("Civ VI "+code, code, uuid.NewString(), uuid.NewString(), now)

	created, err := store.CreateSession(context.Background(), session, session.InitialStatuses(now))
	require.NoError(t, err)

	return created
}

func testCreateSession(t *testing.T, store Store) {
	// Arrange
	ctx := context.Background()

	// Act
	created := NewSession(t, store)

	// Assert
	require.Positive(t, created.ID)
	require.Equal(t, gamesession.TurnPlayer1, created.CurrentTurn)

	byID, err := store.GetSession(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Code, byID.Code)
	require.Equal(t, created.Player1SteamID, byID.Player1SteamID)
	require.True(t, created.CreatedAt.Equal(byID.CreatedAt))

	byCode, err := store.GetSessionByCode(ctx, created.Code)
	require.NoError(t, err)
	require.Equal(t, created.ID, byCode.ID)

	statuses, err := store.ListPlayerStatuses(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	withPlayers := gamesession.WithPlayers(byID, statuses)
	require.NotNil(t, withPlayers.Player1Status)
	require.NotNil(t, withPlayers.Player2Status)
	require.Equal(t, gamesession.StatusReady, withPlayers.Player1Status.Status)
	require.Equal(t, gamesession.StatusUnavailable, withPlayers.Player2Status.Status)
	require.Nil(t, withPlayers.Player1Status.LastTurnCompleted)
}

func testDuplicateCode(t *testing.T, store Store) {
	// Arrange
	existing := NewSession(t, store)
	now := gamesession.Now()
	duplicate := gamesession.NewGameSession("other", existing.Code, uuid.NewString(), uuid.NewString(), now)

	// Act
	_, err := store.CreateSession(context.Background(), duplicate, duplicate.InitialStatuses(now))

	// Assert
	require.ErrorIs(t, err, gamesession.ErrCodeInUse)

	stored, err := store.GetSessionByCode(context.Background(), existing.Code)
	require.NoError(t, err)
	require.Equal(t, existing.ID, stored.ID)
}

func testNotFound(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.GetSession(ctx, 1<<40)
	require.ErrorIs(t, err, gamesession.ErrSessionNotFound)

	_, err = store.GetSessionByCode(ctx, "ZZZZZ0")
	require.ErrorIs(t, err, gamesession.ErrSessionNotFound)

	_, err = store.GetPlayerStatus(ctx, gamesession.PlayerKey{GameSessionID: 1 << 40, SteamID: "nobody"})
	require.ErrorIs(t, err, gamesession.ErrStatusNotFound)

	_, err = store.GetSubscription(ctx, uuid.NewString())
	require.ErrorIs(t, err, notifications.ErrSubscriptionNotFound)
}

func testEnsurePlayerStatus(t *testing.T, store Store) {
	// Arrange
	ctx := context.Background()
	session := NewSession(t, store)

	// Act
	first, err := store.EnsurePlayerStatus(ctx, gamesession.NewPlayerStatus(
		session.ID, session.Player2SteamID, gamesession.StatusReady, gamesession.Now(),
	))
	require.NoError(t, err)

	third := uuid.NewString()
	inserted, err := store.EnsurePlayerStatus(ctx, gamesession.NewPlayerStatus(
		session.ID, third, gamesession.StatusBusy, gamesession.Now(),
	))
	require.NoError(t, err)

	// Assert
	require.Equal(t, gamesession.StatusUnavailable, first.Status)
	require.Equal(t, gamesession.StatusBusy, inserted.Status)

	stored, err := store.GetPlayerStatus(ctx, gamesession.PlayerKey{GameSessionID: session.ID, SteamID: third})
	require.NoError(t, err)
	require.Equal(t, gamesession.StatusBusy, stored.Status)
}

func testUpdatePlayerStatus(t *testing.T, store Store) {
	// Arrange
	ctx := context.Background()
	session := NewSession(t, store)
	key := gamesession.PlayerKey{GameSessionID: session.ID, SteamID: session.Player1SteamID}

	current, err := store.GetPlayerStatus(ctx, key)
	require.NoError(t, err)

	message := "back in 10"
	updated := current.Apply(gamesession.StatusBusy, &message, gamesession.Now())

	// Act
	err = store.UpdatePlayerStatus(ctx, updated)

	// Assert
	require.NoError(t, err)

	stored, err := store.GetPlayerStatus(ctx, key)
	require.NoError(t, err)
	require.Equal(t, gamesession.StatusBusy, stored.Status)
	require.NotNil(t, stored.Message)
	require.Equal(t, message, *stored.Message)

	missing := gamesession.NewPlayerStatus(session.ID, uuid.NewString(), gamesession.StatusReady, gamesession.Now())
	require.ErrorIs(t, store.UpdatePlayerStatus(ctx, missing), gamesession.ErrStatusNotFound)
}

// A status update built from a row read before the player completed their
// turn must not erase the completion time.
func testUpdatePlayerStatusAfterCompleteTurn(t *testing.T, store Store) {
	// Arrange
	ctx := context.Background()
	session := NewSession(t, store)
	key := gamesession.PlayerKey{GameSessionID: session.ID, SteamID: session.Player1SteamID}

	stale, err := store.GetPlayerStatus(ctx, key)
	require.NoError(t, err)
	require.Nil(t, stale.LastTurnCompleted)

	_, err = store.CompleteTurn(ctx, gamesession.TurnTransition{
		SessionID:   session.ID,
		Expected:    gamesession.TurnPlayer1,
		CompletedBy: session.Player1SteamID,
		CompletedAt: gamesession.Now(),
	})
	require.NoError(t, err)

	// Act
	err = store.UpdatePlayerStatus(ctx, stale.Apply(gamesession.StatusBusy, nil, gamesession.Now()))

	// Assert
	require.NoError(t, err)

	stored, err := store.GetPlayerStatus(ctx, key)
	require.NoError(t, err)
	require.Equal(t, gamesession.StatusBusy, stored.Status)
	require.NotNil(t, stored.LastTurnCompleted)
}

func testCompleteTurn(t *testing.T, store Store) {
	// Arrange
	ctx := context.Background()
	session := NewSession(t, store)
	completedAt := gamesession.Now()

	// Act
	updated, err := store.CompleteTurn(ctx, gamesession.TurnTransition{
		SessionID:   session.ID,
		Expected:    gamesession.TurnPlayer1,
		CompletedBy: session.Player1SteamID,
		CompletedAt: completedAt,
	})

	// Assert
	require.NoError(t, err)
	require.Equal(t, gamesession.TurnPlayer2, updated.CurrentTurn)

	stored, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, gamesession.TurnPlayer2, stored.CurrentTurn)

	status, err := store.GetPlayerStatus(ctx, gamesession.PlayerKey{GameSessionID: session.ID, SteamID: session.Player1SteamID})
	require.NoError(t, err)
	require.NotNil(t, status.LastTurnCompleted)
	require.WithinDuration(t, completedAt, *status.LastTurnCompleted, time.Millisecond)
	require.Equal(t, gamesession.StatusReady, status.Status)
}

func testCompleteTurnStale(t *testing.T, store Store) {
	// Arrange
	ctx := context.Background()
	session := NewSession(t, store)

	// Act
	_, staleErr := store.CompleteTurn(ctx, gamesession.TurnTransition{
		SessionID:   session.ID,
		Expected:    gamesession.TurnPlayer2,
		CompletedBy: session.Player2SteamID,
		CompletedAt: gamesession.Now(),
	})
	_, missingErr := store.CompleteTurn(ctx, gamesession.TurnTransition{
		SessionID:   1 << 40,
		Expected:    gamesession.TurnPlayer1,
		CompletedBy: session.Player1SteamID,
		CompletedAt: gamesession.Now(),
	})

	// Assert
	require.ErrorIs(t, staleErr, gamesession.ErrNotYourTurn)
	require.ErrorIs(t, missingErr, gamesession.ErrSessionNotFound)

	stored, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, gamesession.TurnPlayer1, stored.CurrentTurn)
}

func testCompleteTurnConcurrent(t *testing.T, store Store) {
	// Arrange
	ctx := context.Background()
	session := NewSession(t, store)

	const attempts = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		rejects int
	)

	// Act
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := store.CompleteTurn(ctx, gamesession.TurnTransition{
				SessionID:   session.ID,
				Expected:    gamesession.TurnPlayer1,
				CompletedBy: session.Player1SteamID,
				CompletedAt: gamesession.Now(),
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				wins++
			case errors.Is(err, gamesession.ErrNotYourTurn):
				rejects++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// Assert
	require.Equal(t, 1, wins)
	require.Equal(t, attempts-1, rejects)

	stored, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, gamesession.TurnPlayer2, stored.CurrentTurn)
}

func testCompleteTurnWithOpponentWrites(t *testing.T, store Store) {
	// Arrange
	ctx := context.Background()
	session := NewSession(t, store)
	opponent := gamesession.PlayerKey{GameSessionID: session.ID, SteamID: session.Player2SteamID}

	current, err := store.GetPlayerStatus(ctx, opponent)
	require.NoError(t, err)

	const opponentWrites = 3

	var wg sync.WaitGroup
	wg.Add(opponentWrites)

	// Act
	for i := 0; i < opponentWrites; i++ {
		go func() {
			defer wg.Done()

			if err := store.UpdatePlayerStatus(ctx, current.Apply(gamesession.StatusBusy, nil, gamesession.Now())); err != nil {
				t.Errorf("opponent status update failed: %v", err)
			}
		}()
	}

	updated, completeErr := store.CompleteTurn(ctx, gamesession.TurnTransition{
		SessionID:   session.ID,
		Expected:    gamesession.TurnPlayer1,
		CompletedBy: session.Player1SteamID,
		CompletedAt: gamesession.Now(),
	})
	wg.Wait()

	// Assert
	require.NoError(t, completeErr)
	require.Equal(t, gamesession.TurnPlayer2, updated.CurrentTurn)

	completer, err := store.GetPlayerStatus(ctx, gamesession.PlayerKey{GameSessionID: session.ID, SteamID: session.Player1SteamID})
	require.NoError(t, err)
	require.NotNil(t, completer.LastTurnCompleted)

	stored, err := store.GetPlayerStatus(ctx, opponent)
	require.NoError(t, err)
	require.Equal(t, gamesession.StatusBusy, stored.Status)
}

func testSaveSubscription(t *testing.T, store Store) {
	// Arrange
	ctx := context.Background()
	steamID := uuid.NewString()

	first := notifications.Subscription{
		SteamID:   steamID,
		Endpoint:  "https://push.example.com/first",
		P256dh:    "p256dh-1",
		Auth:      "auth-1",
		CreatedAt: gamesession.Now(),
	}
	second := first
	second.Endpoint = "https://push.example.com/second"
	second.P256dh = "p256dh-2"
	second.Auth = "auth-2"

	// Act
	require.NoError(t, store.SaveSubscription(ctx, first))
	require.NoError(t, store.SaveSubscription(ctx, second))

	// Assert
	stored, err := store.GetSubscription(ctx, steamID)
	require.NoError(t, err)
	require.Equal(t, second.Endpoint, stored.Endpoint)
	require.Equal(t, second.P256dh, stored.P256dh)
	require.Equal(t, second.Auth, stored.Auth)
}
