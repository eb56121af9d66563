package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	gamesession "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	notifications "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/domain"
	sqlmigration "github.com/eskrenkovic/turn-tracker/internal/sql-migrations"

	"github.com/eskrenkovic/migrate-go"
	"github.com/eskrenkovic/tql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations/*.sql
var sqliteMigrations embed.FS

// Store implements the repositories on database/sql. Statements are written
// once with named parameters, tql rewrites them for the active driver.
type Store struct {
	db     *sql.DB
	driver string
}

func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver '%s'", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// A single connection serialises writers and keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := tql.SetActiveDriver(driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, driver: driver}, nil
}

// Migrate brings the schema up to date. Postgres migrations are read from
// migrationsPath, sqlite ones are embedded.
func (s *Store) Migrate(ctx context.Context, migrationsPath string) error {
	if s.driver == DriverPostgres {
		return migrate.Run(ctx, s.db, migrationsPath)
	}

	return sqlmigration.Run(ctx, s.db, sqliteMigrations, "migrations")
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

const selectSession = `
	SELECT
		id, code, name, player1_steam_id, player2_steam_id, current_turn, created_at
	FROM
		game_session`

const selectStatus = `
	SELECT
		game_session_id, steam_id, status, message, last_turn_completed, updated_at
	FROM
		player_status`

func (s *Store) CreateSession(
	ctx context.Context,
	session gamesession.GameSession,
	statuses []gamesession.PlayerStatus,
) (gamesession.GameSession, error) {
	err := core.Tx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		const stmt = `
			INSERT INTO
				game_session (code, name, player1_steam_id, player2_steam_id, current_turn, created_at)
			VALUES
				(:code, :name, :player1_steam_id, :player2_steam_id, :current_turn, :created_at)
			ON CONFLICT (code) DO NOTHING
			RETURNING id;`
		id, err := tql.QueryFirst[int64](ctx, tx, stmt, map[string]any{
			"code":             session.Code,
			"name":             session.Name,
			"player1_steam_id": session.Player1SteamID,
			"player2_steam_id": session.Player2SteamID,
			"current_turn":     string(session.CurrentTurn),
			"created_at":       session.CreatedAt,
		})
		if errors.Is(err, sql.ErrNoRows) {
			return s.conflictOrError(ctx, tx, session.Code)
		}
		if err != nil {
			return err
		}

		session.ID = id

		for _, status := range statuses {
			status.GameSessionID = id
			if err := insertStatus(ctx, tx, status); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return gamesession.GameSession{}, err
	}

	return session, nil
}

// conflictOrError tells a skipped insert apart from a failed one.
func (s *Store) conflictOrError(ctx context.Context, q tql.Querier, code string) error {
	if _, err := getSessionByCode(ctx, q, code); err == nil {
		return gamesession.ErrCodeInUse
	}

	return errors.New("failed to insert game session")
}

func insertStatus(ctx context.Context, e tql.Executor, status gamesession.PlayerStatus) error {
	const stmt = `
		INSERT INTO
			player_status (game_session_id, steam_id, status, message, last_turn_completed, updated_at)
		VALUES
			(:game_session_id, :steam_id, :status, :message, :last_turn_completed, :updated_at)
		ON CONFLICT (game_session_id, steam_id) DO NOTHING;`
	_, err := tql.Exec(ctx, e, stmt, statusParams(status))
	return err
}

func statusParams(status gamesession.PlayerStatus) map[string]any {
	return map[string]any{
		"game_session_id":     status.GameSessionID,
		"steam_id":            status.SteamID,
		"status":              string(status.Status),
		"message":             status.Message,
		"last_turn_completed": status.LastTurnCompleted,
		"updated_at":          status.UpdatedAt,
	}
}

func (s *Store) GetSession(ctx context.Context, id int64) (gamesession.GameSession, error) {
	return getSession(ctx, s.db, id)
}

func getSession(ctx context.Context, q tql.Querier, id int64) (gamesession.GameSession, error) {
	session, err := tql.QueryFirst[gamesession.GameSession](
		ctx, q, selectSession+` WHERE id = :id;`, map[string]any{"id": id},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return gamesession.GameSession{}, gamesession.ErrSessionNotFound
	}

	return session, err
}

func (s *Store) GetSessionByCode(ctx context.Context, code string) (gamesession.GameSession, error) {
	return getSessionByCode(ctx, s.db, code)
}

func getSessionByCode(ctx context.Context, q tql.Querier, code string) (gamesession.GameSession, error) {
	session, err := tql.QueryFirst[gamesession.GameSession](
		ctx, q, selectSession+` WHERE code = :code;`, map[string]any{"code": code},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return gamesession.GameSession{}, gamesession.ErrSessionNotFound
	}

	return session, err
}

func (s *Store) ListPlayerStatuses(ctx context.Context, sessionID int64) ([]gamesession.PlayerStatus, error) {
	return tql.Query[gamesession.PlayerStatus](
		ctx,
		s.db,
		selectStatus+` WHERE game_session_id = :game_session_id ORDER BY steam_id;`,
		map[string]any{"game_session_id": sessionID},
	)
}

func (s *Store) GetPlayerStatus(ctx context.Context, key gamesession.PlayerKey) (gamesession.PlayerStatus, error) {
	return getPlayerStatus(ctx, s.db, key)
}

func getPlayerStatus(ctx context.Context, q tql.Querier, key gamesession.PlayerKey) (gamesession.PlayerStatus, error) {
	status, err := tql.QueryFirst[gamesession.PlayerStatus](
		ctx,
		q,
		selectStatus+` WHERE game_session_id = :game_session_id AND steam_id = :steam_id;`,
		map[string]any{"game_session_id": key.GameSessionID, "steam_id": key.SteamID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return gamesession.PlayerStatus{}, gamesession.ErrStatusNotFound
	}

	return status, err
}

func (s *Store) EnsurePlayerStatus(ctx context.Context, status gamesession.PlayerStatus) (gamesession.PlayerStatus, error) {
	var stored gamesession.PlayerStatus

	err := core.Tx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertStatus(ctx, tx, status); err != nil {
			return err
		}

		var err error
		stored, err = getPlayerStatus(ctx, tx, status.Key())
		return err
	})

	return stored, err
}

// UpdatePlayerStatus leaves last_turn_completed alone so a concurrent turn
// completion is never overwritten by a stale read.
func (s *Store) UpdatePlayerStatus(ctx context.Context, status gamesession.PlayerStatus) error {
	const stmt = `
		UPDATE
			player_status
		SET
			status = :status,
			message = :message,
			updated_at = :updated_at
		WHERE
			game_session_id = :game_session_id AND steam_id = :steam_id;`
	result, err := tql.Exec(ctx, s.db, stmt, map[string]any{
		"status":          string(status.Status),
		"message":         status.Message,
		"updated_at":      status.UpdatedAt,
		"game_session_id": status.GameSessionID,
		"steam_id":        status.SteamID,
	})
	if err != nil {
		return err
	}

	return expectOneRow(result, gamesession.ErrStatusNotFound)
}

func (s *Store) CompleteTurn(ctx context.Context, transition gamesession.TurnTransition) (gamesession.GameSession, error) {
	var session gamesession.GameSession

	err := core.Tx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		const flipTurn = `
			UPDATE
				game_session
			SET
				current_turn = :next
			WHERE
				id = :id AND current_turn = :expected;`
		result, err := tql.Exec(ctx, tx, flipTurn, map[string]any{
			"next":     string(transition.Expected.Next()),
			"id":       transition.SessionID,
			"expected": string(transition.Expected),
		})
		if err != nil {
			return err
		}

		if err := expectOneRow(result, gamesession.ErrNotYourTurn); err != nil {
			if _, getErr := getSession(ctx, tx, transition.SessionID); getErr != nil {
				return getErr
			}
			return err
		}

		const stampCompleter = `
			UPDATE
				player_status
			SET
				last_turn_completed = :completed_at,
				updated_at = :completed_at
			WHERE
				game_session_id = :game_session_id AND steam_id = :steam_id;`
		result, err = tql.Exec(ctx, tx, stampCompleter, map[string]any{
			"completed_at":    transition.CompletedAt,
			"game_session_id": transition.SessionID,
			"steam_id":        transition.CompletedBy,
		})
		if err != nil {
			return err
		}

		if err := expectOneRow(result, gamesession.ErrStatusNotFound); err != nil {
			return err
		}

		session, err = getSession(ctx, tx, transition.SessionID)
		return err
	})

	return session, err
}

func (s *Store) SaveSubscription(ctx context.Context, subscription notifications.Subscription) error {
	const stmt = `
		INSERT INTO
			push_subscription (steam_id, endpoint, p256dh, auth, created_at)
		VALUES
			(:steam_id, :endpoint, :p256dh, :auth, :created_at)
		ON CONFLICT (steam_id) DO UPDATE SET
			endpoint = excluded.endpoint,
			p256dh = excluded.p256dh,
			auth = excluded.auth,
			created_at = excluded.created_at;`
	_, err := tql.Exec(ctx, s.db, stmt, map[string]any{
		"steam_id":   subscription.SteamID,
		"endpoint":   subscription.Endpoint,
		"p256dh":     subscription.P256dh,
		"auth":       subscription.Auth,
		"created_at": subscription.CreatedAt,
	})
	return err
}

func (s *Store) GetSubscription(ctx context.Context, steamID string) (notifications.Subscription, error) {
	const query = `
		SELECT
			steam_id, endpoint, p256dh, auth, created_at
		FROM
			push_subscription
		WHERE
			steam_id = :steam_id;`
	subscription, err := tql.QueryFirst[notifications.Subscription](
		ctx, s.db, query, map[string]any{"steam_id": steamID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return notifications.Subscription{}, notifications.ErrSubscriptionNotFound
	}

	return subscription, err
}

func expectOneRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected != 1 {
		return notFound
	}

	return nil
}
