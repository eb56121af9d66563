package domain_test

import (
	"testing"
	"time"

	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"

	"github.com/stretchr/testify/require"
)

func newSession() domain.GameSession {
	session := domain.NewGameSession("Pangaea", "ABC123", "alice", "bob", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	session.ID = 7
	return session
}

func Test_Turn_Next_Alternates_Between_Players(t *testing.T) {
	require.Equal(t, domain.TurnPlayer2, domain.TurnPlayer1.Next())
	require.Equal(t, domain.TurnPlayer1, domain.TurnPlayer2.Next())
	require.True(t, domain.TurnPlayer1.Valid())
	require.False(t, domain.Turn("player3").Valid())
}

func Test_NewGameSession_Starts_On_Player1(t *testing.T) {
	// Act
	session := newSession()

	// Assert
	require.Equal(t, domain.TurnPlayer1, session.CurrentTurn)
}

func Test_InitialStatuses_Marks_Creator_Ready_And_Invitee_Unavailable(t *testing.T) {
	// Arrange
	session := newSession()
	now := time.Now().UTC()

	// Act
	statuses := session.InitialStatuses(now)

	// Assert
	require.Len(t, statuses, 2)
	require.Equal(t, "alice", statuses[0].SteamID)
	require.Equal(t, domain.StatusReady, statuses[0].Status)
	require.Equal(t, "bob", statuses[1].SteamID)
	require.Equal(t, domain.StatusUnavailable, statuses[1].Status)
	require.Nil(t, statuses[0].Message)
	require.Nil(t, statuses[0].LastTurnCompleted)
}

func Test_Opponent_Returns_Other_Member(t *testing.T) {
	session := newSession()

	opponent, ok := session.Opponent("alice")
	require.True(t, ok)
	require.Equal(t, "bob", opponent)

	opponent, ok = session.Opponent("bob")
	require.True(t, ok)
	require.Equal(t, "alice", opponent)

	_, ok = session.Opponent("mallory")
	require.False(t, ok)
}

func Test_CheckTurn_Accepts_Only_Current_Player(t *testing.T) {
	tests := []struct {
		name    string
		steamID string
		turn    domain.Turn
		err     error
	}{
		{"current player", "alice", domain.TurnPlayer1, nil},
		{"waiting player", "bob", "", domain.ErrNotYourTurn},
		{"stranger", "mallory", "", domain.ErrNotYourTurn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			slot, err := newSession().CheckTurn(tt.steamID)

			// Assert
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.turn, slot)
		})
	}
}

func Test_WithPlayers_Assigns_Statuses_By_Slot(t *testing.T) {
	// Arrange
	session := newSession()
	now := time.Now().UTC()
	statuses := []domain.PlayerStatus{
		domain.NewPlayerStatus(session.ID, "bob", domain.StatusBusy, now),
		domain.NewPlayerStatus(session.ID, "stranger", domain.StatusReady, now),
		domain.NewPlayerStatus(session.ID, "alice", domain.StatusReady, now),
	}

	// Act
	result := domain.WithPlayers(session, statuses)

	// Assert
	require.Equal(t, session, result.GameSession)
	require.NotNil(t, result.Player1Status)
	require.Equal(t, "alice", result.Player1Status.SteamID)
	require.NotNil(t, result.Player2Status)
	require.Equal(t, domain.StatusBusy, result.Player2Status.Status)
}

func Test_WithPlayers_Leaves_Missing_Status_Nil(t *testing.T) {
	// Act
	result := domain.WithPlayers(newSession(), nil)

	// Assert
	require.Nil(t, result.Player1Status)
	require.Nil(t, result.Player2Status)
}
