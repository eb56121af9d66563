package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	gamesession "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	notifications "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/domain"

	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 5

// Store keeps sessions and subscriptions as JSON values and status rows in
// one hash per session, keyed by steam id. Multi-key updates go through
// WATCH/MULTI so a concurrent writer aborts the transaction.
type Store struct {
	client *redis.Client
	prefix string
}

func Open(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return New(client, "turn-tracker:"), nil
}

func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// reader is what both the client and a WATCH transaction offer for reads.
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

func (s *Store) sequenceKey() string {
	return s.prefix + "session:seq"
}

func (s *Store) sessionKey(id int64) string {
	return s.prefix + "session:" + strconv.FormatInt(id, 10)
}

func (s *Store) codeKey(code string) string {
	return s.prefix + "session:code:" + code
}

func (s *Store) statusKey(sessionID int64) string {
	return s.prefix + "status:" + strconv.FormatInt(sessionID, 10)
}

func (s *Store) subscriptionKey(steamID string) string {
	return s.prefix + "subscription:" + steamID
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close(context.Context) error {
	return s.client.Close()
}

func (s *Store) CreateSession(
	ctx context.Context,
	session gamesession.GameSession,
	statuses []gamesession.PlayerStatus,
) (gamesession.GameSession, error) {
	id, err := s.client.Incr(ctx, s.sequenceKey()).Result()
	if err != nil {
		return gamesession.GameSession{}, err
	}

	session.ID = id

	claimed, err := s.client.SetNX(ctx, s.codeKey(session.Code), id, 0).Result()
	if err != nil {
		return gamesession.GameSession{}, err
	}

	if !claimed {
		return gamesession.GameSession{}, gamesession.ErrCodeInUse
	}

	sessionData, err := json.Marshal(session)
	if err != nil {
		return gamesession.GameSession{}, err
	}

	statusFields := make(map[string]any, len(statuses))
	for _, status := range statuses {
		status.GameSessionID = id

		data, err := json.Marshal(status)
		if err != nil {
			return gamesession.GameSession{}, err
		}
		statusFields[status.SteamID] = data
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(id), sessionData, 0)
		if len(statusFields) > 0 {
			pipe.HSet(ctx, s.statusKey(id), statusFields)
		}
		return nil
	})
	if err != nil {
		// Release the code so the caller can retry with it.
		_ = s.client.Del(ctx, s.codeKey(session.Code)).Err()
		return gamesession.GameSession{}, err
	}

	return session, nil
}

func (s *Store) GetSession(ctx context.Context, id int64) (gamesession.GameSession, error) {
	return s.getSession(ctx, s.client, id)
}

func (s *Store) getSession(ctx context.Context, c reader, id int64) (gamesession.GameSession, error) {
	data, err := c.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gamesession.GameSession{}, gamesession.ErrSessionNotFound
	}
	if err != nil {
		return gamesession.GameSession{}, err
	}

	var session gamesession.GameSession
	if err := json.Unmarshal(data, &session); err != nil {
		return gamesession.GameSession{}, fmt.Errorf("failed to decode session %d: %w", id, err)
	}

	return session, nil
}

func (s *Store) GetSessionByCode(ctx context.Context, code string) (gamesession.GameSession, error) {
	id, err := s.client.Get(ctx, s.codeKey(code)).Int64()
	if errors.Is(err, redis.Nil) {
		return gamesession.GameSession{}, gamesession.ErrSessionNotFound
	}
	if err != nil {
		return gamesession.GameSession{}, err
	}

	return s.GetSession(ctx, id)
}

func (s *Store) ListPlayerStatuses(ctx context.Context, sessionID int64) ([]gamesession.PlayerStatus, error) {
	fields, err := s.client.HGetAll(ctx, s.statusKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	statuses := make([]gamesession.PlayerStatus, 0, len(fields))
	for _, raw := range fields {
		status, err := decodeStatus([]byte(raw))
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].SteamID < statuses[j].SteamID
	})

	return statuses, nil
}

func (s *Store) GetPlayerStatus(ctx context.Context, key gamesession.PlayerKey) (gamesession.PlayerStatus, error) {
	return s.getPlayerStatus(ctx, s.client, key)
}

func (s *Store) getPlayerStatus(ctx context.Context, c reader, key gamesession.PlayerKey) (gamesession.PlayerStatus, error) {
	raw, err := c.HGet(ctx, s.statusKey(key.GameSessionID), key.SteamID).Bytes()
	if errors.Is(err, redis.Nil) {
		return gamesession.PlayerStatus{}, gamesession.ErrStatusNotFound
	}
	if err != nil {
		return gamesession.PlayerStatus{}, err
	}

	return decodeStatus(raw)
}

func (s *Store) EnsurePlayerStatus(ctx context.Context, status gamesession.PlayerStatus) (gamesession.PlayerStatus, error) {
	data, err := json.Marshal(status)
	if err != nil {
		return gamesession.PlayerStatus{}, err
	}

	if err := s.client.HSetNX(ctx, s.statusKey(status.GameSessionID), status.SteamID, data).Err(); err != nil {
		return gamesession.PlayerStatus{}, err
	}

	return s.GetPlayerStatus(ctx, status.Key())
}

// UpdatePlayerStatus merges status, message and updatedAt into the stored row
// so a turn completion racing with it keeps its lastTurnCompleted.
func (s *Store) UpdatePlayerStatus(ctx context.Context, status gamesession.PlayerStatus) error {
	key := s.statusKey(status.GameSessionID)

	return s.watch(ctx, func(tx *redis.Tx) error {
		stored, err := s.getPlayerStatus(ctx, tx, status.Key())
		if err != nil {
			return err
		}

		stored.Status = status.Status
		stored.Message = status.Message
		stored.UpdatedAt = status.UpdatedAt

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, status.SteamID, data)
			return nil
		})
		return err
	}, key)
}

func (s *Store) CompleteTurn(ctx context.Context, transition gamesession.TurnTransition) (gamesession.GameSession, error) {
	sessionKey := s.sessionKey(transition.SessionID)
	statusKey := s.statusKey(transition.SessionID)

	var updated gamesession.GameSession

	// Opponent writes to the status hash abort EXEC too. Only a changed turn
	// is ErrNotYourTurn.
	err := s.watch(ctx, func(tx *redis.Tx) error {
		session, err := s.getSession(ctx, tx, transition.SessionID)
		if err != nil {
			return err
		}

		if session.CurrentTurn != transition.Expected {
			return gamesession.ErrNotYourTurn
		}

		status, err := s.getPlayerStatus(ctx, tx, gamesession.PlayerKey{
			GameSessionID: transition.SessionID,
			SteamID:       transition.CompletedBy,
		})
		if err != nil {
			return err
		}

		session.CurrentTurn = transition.Expected.Next()
		status = status.CompleteTurn(transition.CompletedAt)

		sessionData, err := json.Marshal(session)
		if err != nil {
			return err
		}

		statusData, err := json.Marshal(status)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sessionKey, sessionData, 0)
			pipe.HSet(ctx, statusKey, transition.CompletedBy, statusData)
			return nil
		})
		if err != nil {
			return err
		}

		updated = session
		return nil
	}, sessionKey, statusKey)
	if errors.Is(err, redis.TxFailedErr) {
		return gamesession.GameSession{}, fmt.Errorf("failed to complete turn after %d attempts: %w", maxWatchRetries, err)
	}

	return updated, err
}

func (s *Store) SaveSubscription(ctx context.Context, subscription notifications.Subscription) error {
	data, err := json.Marshal(subscription)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.subscriptionKey(subscription.SteamID), data, 0).Err()
}

func (s *Store) GetSubscription(ctx context.Context, steamID string) (notifications.Subscription, error) {
	data, err := s.client.Get(ctx, s.subscriptionKey(steamID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return notifications.Subscription{}, notifications.ErrSubscriptionNotFound
	}
	if err != nil {
		return notifications.Subscription{}, err
	}

	var subscription notifications.Subscription
	if err := json.Unmarshal(data, &subscription); err != nil {
		return notifications.Subscription{}, fmt.Errorf("failed to decode subscription: %w", err)
	}

	return subscription, nil
}

// watch retries fn while the watched keys keep changing underneath it.
func (s *Store) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxWatchRetries; i++ {
		err = s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return err
}

func decodeStatus(raw []byte) (gamesession.PlayerStatus, error) {
	var status gamesession.PlayerStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return gamesession.PlayerStatus{}, fmt.Errorf("failed to decode player status: %w", err)
	}

	return status, nil
}
