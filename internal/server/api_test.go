package server_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/commands"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/queries"
	notificationsqueries "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type players struct {
	player1 string
	player2 string
}

func newPlayers() players {
	return players{player1: uuid.NewString(), player2: uuid.NewString()}
}

func generateCode(t *testing.T) string {
	t.Helper()

	return sendJSON[queries.GenerateCodeResponse](t, http.MethodGet, "/generate-code", nil, http.StatusOK).Code
}

func createGame(t *testing.T, code string, p players) domain.GameSession {
	t.Helper()

	return sendJSON[domain.GameSession](t, http.MethodPost, "/game", commands.CreateSessionCommand{
		Name:           "Test",
		Code:           code,
		Player1SteamID: p.player1,
		Player2SteamID: p.player2,
	}, http.StatusCreated)
}

func completeTurn(t *testing.T, gameID int64, steamID string) apiResponse {
	t.Helper()

	return send(t, http.MethodPost, "/complete-turn", commands.CompleteTurnCommand{GameSessionID: gameID, SteamID: steamID})
}

func Test_Turns_Alternate_Between_Players(t *testing.T) {
	// Arrange
	created := send(t, http.MethodPost, "/game", map[string]string{
		"name":           "Test",
		"code":           "ABC123",
		"player1SteamId": "alice",
		"player2SteamId": "bob",
		"currentTurn":    "player1",
	})
	require.Equal(t, http.StatusCreated, created.StatusCode, string(created.Body))

	byCode := sendJSON[domain.SessionWithPlayers](t, http.MethodGet, "/game/code/ABC123", nil, http.StatusOK)
	require.Equal(t, domain.TurnPlayer1, byCode.CurrentTurn)
	require.Equal(t, fmt.Sprintf("/game/%d", byCode.ID), created.Header.Get("Location"))

	// Act
	afterAlice := sendJSON[domain.SessionWithPlayers](t, http.MethodPost, "/complete-turn",
		commands.CompleteTurnCommand{GameSessionID: byCode.ID, SteamID: "alice"}, http.StatusOK)

	again := completeTurn(t, byCode.ID, "alice")

	afterBob := sendJSON[domain.SessionWithPlayers](t, http.MethodPost, "/complete-turn",
		commands.CompleteTurnCommand{GameSessionID: byCode.ID, SteamID: "bob"}, http.StatusOK)

	// Assert
	require.Equal(t, domain.TurnPlayer2, afterAlice.CurrentTurn)
	require.NotNil(t, afterAlice.Player1Status)
	require.NotNil(t, afterAlice.Player1Status.LastTurnCompleted)

	require.Equal(t, http.StatusBadRequest, again.StatusCode)
	require.Equal(t, "it's not your turn", again.errorMessage(t))

	require.Equal(t, domain.TurnPlayer1, afterBob.CurrentTurn)
	require.NotNil(t, afterBob.Player2Status.LastTurnCompleted)

	stored := sendJSON[domain.SessionWithPlayers](t, http.MethodGet, fmt.Sprintf("/game/%d", byCode.ID), nil, http.StatusOK)
	require.Equal(t, domain.TurnPlayer1, stored.CurrentTurn)
	require.Equal(t, "alice", stored.Player1SteamID)
}

func Test_CreateSession_Returns_400_When_Code_In_Use(t *testing.T) {
	// Arrange
	code := generateCode(t)
	createGame(t, code, newPlayers())

	// Act
	resp := send(t, http.MethodPost, "/game", commands.CreateSessionCommand{
		Name:           "Duplicate",
		Code:           code,
		Player1SteamID: uuid.NewString(),
		Player2SteamID: uuid.NewString(),
	})

	// Assert
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "game code already in use", resp.errorMessage(t))
}

func Test_CreateSession_Returns_400_For_Invalid_Requests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"malformed json", "{"},
		{"missing name", commands.CreateSessionCommand{Code: "QWERTY", Player1SteamID: "a", Player2SteamID: "b"}},
		{"short code", commands.CreateSessionCommand{Name: "g", Code: "QW", Player1SteamID: "a", Player2SteamID: "b"}},
		{"same players", commands.CreateSessionCommand{Name: "g", Code: "QWERTY", Player1SteamID: "a", Player2SteamID: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			resp := send(t, http.MethodPost, "/game", tt.body)

			// Assert
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.NotEmpty(t, resp.errorMessage(t))
		})
	}
}

func Test_JoinSession_Is_Idempotent(t *testing.T) {
	// Arrange
	p := newPlayers()
	session := createGame(t, generateCode(t), p)
	join := commands.JoinSessionCommand{Code: session.Code, SteamID: p.player2}

	// Act
	first := sendJSON[commands.JoinSessionResponse](t, http.MethodPost, "/game/join", join, http.StatusOK)
	second := sendJSON[commands.JoinSessionResponse](t, http.MethodPost, "/game/join", join, http.StatusOK)

	// Assert
	require.Equal(t, session.ID, first.GameSession.ID)
	require.Equal(t, domain.StatusUnavailable, first.PlayerStatus.Status)
	require.Equal(t, first.PlayerStatus.Status, second.PlayerStatus.Status)
	require.True(t, first.PlayerStatus.UpdatedAt.Equal(second.PlayerStatus.UpdatedAt))
}

func Test_JoinSession_Rejects_Unknown_Code_And_Strangers(t *testing.T) {
	// Arrange
	session := createGame(t, generateCode(t), newPlayers())

	// Act
	unknown := send(t, http.MethodPost, "/game/join", commands.JoinSessionCommand{Code: "ZZZZZ0", SteamID: "x"})
	stranger := send(t, http.MethodPost, "/game/join", commands.JoinSessionCommand{Code: session.Code, SteamID: uuid.NewString()})

	// Assert
	require.Equal(t, http.StatusNotFound, unknown.StatusCode)
	require.Equal(t, http.StatusForbidden, stranger.StatusCode)
}

func Test_UpdateStatus_Sets_Status_And_Keeps_Message(t *testing.T) {
	// Arrange
	p := newPlayers()
	session := createGame(t, generateCode(t), p)
	message := "brb"

	// Act
	busy := sendJSON[domain.PlayerStatus](t, http.MethodPost, "/status", commands.UpdateStatusCommand{
		GameSessionID: session.ID, SteamID: p.player2, Status: "busy", Message: &message,
	}, http.StatusOK)

	ready := sendJSON[domain.PlayerStatus](t, http.MethodPost, "/status", commands.UpdateStatusCommand{
		GameSessionID: session.ID, SteamID: p.player2, Status: "ready",
	}, http.StatusOK)

	// Assert
	require.Equal(t, domain.StatusBusy, busy.Status)
	require.Equal(t, domain.StatusReady, ready.Status)
	require.NotNil(t, ready.Message)
	require.Equal(t, "brb", *ready.Message)

	stored := sendJSON[domain.SessionWithPlayers](t, http.MethodGet, fmt.Sprintf("/game/%d", session.ID), nil, http.StatusOK)
	require.Equal(t, domain.StatusReady, stored.Player2Status.Status)
}

func Test_UpdateStatus_Rejects_Invalid_Requests(t *testing.T) {
	p := newPlayers()
	session := createGame(t, generateCode(t), p)

	tests := []struct {
		name       string
		command    commands.UpdateStatusCommand
		statusCode int
	}{
		{"invalid status", commands.UpdateStatusCommand{GameSessionID: session.ID, SteamID: p.player1, Status: "afk"}, http.StatusBadRequest},
		{"unknown game", commands.UpdateStatusCommand{GameSessionID: 1 << 40, SteamID: p.player1, Status: "busy"}, http.StatusNotFound},
		{"stranger", commands.UpdateStatusCommand{GameSessionID: session.ID, SteamID: uuid.NewString(), Status: "busy"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := send(t, http.MethodPost, "/status", tt.command)

			require.Equal(t, tt.statusCode, resp.StatusCode)
		})
	}
}

func Test_CompleteTurn_Rejects_Strangers_And_Unknown_Games(t *testing.T) {
	// Arrange
	session := createGame(t, generateCode(t), newPlayers())

	// Act
	stranger := completeTurn(t, session.ID, uuid.NewString())
	unknown := completeTurn(t, 1<<40, "alice")

	// Assert
	require.Equal(t, http.StatusBadRequest, stranger.StatusCode)
	require.Equal(t, "it's not your turn", stranger.errorMessage(t))
	require.Equal(t, http.StatusNotFound, unknown.StatusCode)
}

func Test_GetSession_Validates_Identifier(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, send(t, http.MethodGet, "/game/abc", nil).StatusCode)
	require.Equal(t, http.StatusNotFound, send(t, http.MethodGet, "/game/999999999", nil).StatusCode)
	require.Equal(t, http.StatusNotFound, send(t, http.MethodGet, "/game/code/ZZZZZ0", nil).StatusCode)
}

func Test_Subscribe_Keeps_Latest_Subscription_And_Receives_Turn_Notification(t *testing.T) {
	// Arrange
	p := newPlayers()
	session := createGame(t, generateCode(t), p)

	p256dh, auth := browserKeys(t)
	subscribe := func(path string) apiResponse {
		return send(t, http.MethodPost, "/subscribe", map[string]any{
			"steamId": p.player2,
			"subscription": map[string]any{
				"endpoint": fixture.pushURL + path,
				"keys":     map[string]string{"p256dh": p256dh, "auth": auth},
			},
		})
	}

	first := "/push/" + uuid.NewString()
	second := "/push/" + uuid.NewString()

	// Act
	require.Equal(t, http.StatusCreated, subscribe(first).StatusCode)
	saved := subscribe(second)

	turn := completeTurn(t, session.ID, p.player1)

	// Assert
	require.Equal(t, http.StatusCreated, saved.StatusCode)
	require.JSONEq(t, `{"message":"Subscription saved"}`, string(saved.Body))

	require.Equal(t, http.StatusOK, turn.StatusCode)
	require.Equal(t, 0, fixture.push.received(first))
	require.Equal(t, 1, fixture.push.received(second))
}

func Test_Subscribe_Returns_400_For_Incomplete_Subscription(t *testing.T) {
	resp := send(t, http.MethodPost, "/subscribe", map[string]any{
		"steamId":      "alice",
		"subscription": map[string]any{"endpoint": "not a url"},
	})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_Status_Change_Succeeds_When_Push_Service_Fails(t *testing.T) {
	// Arrange
	p := newPlayers()
	session := createGame(t, generateCode(t), p)

	p256dh, auth := browserKeys(t)
	resp := send(t, http.MethodPost, "/subscribe", map[string]any{
		"steamId": p.player1,
		"subscription": map[string]any{
			"endpoint": "http://127.0.0.1:1/unreachable",
			"keys":     map[string]string{"p256dh": p256dh, "auth": auth},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Act
	status := send(t, http.MethodPost, "/status", commands.UpdateStatusCommand{
		GameSessionID: session.ID, SteamID: p.player2, Status: "ready",
	})

	// Assert
	require.Equal(t, http.StatusOK, status.StatusCode)
}

func Test_VAPIDPublicKey_Is_Exposed(t *testing.T) {
	response := sendJSON[notificationsqueries.GetVAPIDPublicKeyResponse](t, http.MethodGet, "/vapid-public-key", nil, http.StatusOK)

	require.NotEmpty(t, response.PublicKey)
}

func Test_Operational_Endpoints(t *testing.T) {
	generateCode(t)

	require.Equal(t, http.StatusOK, send(t, http.MethodGet, "/healthz", nil).StatusCode)
	require.Equal(t, http.StatusOK, send(t, http.MethodGet, "/readyz", nil).StatusCode)

	metrics := send(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, metrics.StatusCode)
	require.Contains(t, string(metrics.Body), "turn_tracker_request_duration_seconds")
}

func Test_Responses_Echo_Correlation_ID(t *testing.T) {
	// Arrange
	req, err := http.NewRequest(http.MethodGet, fixture.baseURL+"/generate-code", nil)
	require.NoError(t, err)
	req.Header.Set("Correlation-Id", "trace-me")

	// Act
	resp, err := fixture.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, "trace-me", resp.Header.Get("Correlation-Id"))
}
