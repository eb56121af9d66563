package memory

import (
	"context"
	"sync"

	gamesession "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	notifications "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/domain"
)

// Store keeps everything in process memory. One mutex guards all maps so
// every check-and-set below is atomic.
type Store struct {
	lock sync.RWMutex

	nextID        int64
	sessions      map[int64]gamesession.GameSession
	codes         map[string]int64
	statuses      map[gamesession.PlayerKey]gamesession.PlayerStatus
	subscriptions map[string]notifications.Subscription
}

func New() *Store {
	return &Store{
		sessions:      make(map[int64]gamesession.GameSession),
		codes:         make(map[string]int64),
		statuses:      make(map[gamesession.PlayerKey]gamesession.PlayerStatus),
		subscriptions: make(map[string]notifications.Subscription),
	}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close(context.Context) error {
	return nil
}

func (s *Store) CreateSession(
	_ context.Context,
	session gamesession.GameSession,
	statuses []gamesession.PlayerStatus,
) (gamesession.GameSession, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, exists := s.codes[session.Code]; exists {
		return gamesession.GameSession{}, gamesession.ErrCodeInUse
	}

	s.nextID++
	session.ID = s.nextID

	s.sessions[session.ID] = session
	s.codes[session.Code] = session.ID

	for _, status := range statuses {
		status.GameSessionID = session.ID
		s.statuses[status.Key()] = clone(status)
	}

	return session, nil
}

func (s *Store) GetSession(_ context.Context, id int64) (gamesession.GameSession, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	session, found := s.sessions[id]
	if !found {
		return gamesession.GameSession{}, gamesession.ErrSessionNotFound
	}

	return session, nil
}

func (s *Store) GetSessionByCode(_ context.Context, code string) (gamesession.GameSession, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	id, found := s.codes[code]
	if !found {
		return gamesession.GameSession{}, gamesession.ErrSessionNotFound
	}

	return s.sessions[id], nil
}

func (s *Store) ListPlayerStatuses(_ context.Context, sessionID int64) ([]gamesession.PlayerStatus, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	session, found := s.sessions[sessionID]
	if !found {
		return []gamesession.PlayerStatus{}, nil
	}

	statuses := make([]gamesession.PlayerStatus, 0, 2)
	for _, steamID := range []string{session.Player1SteamID, session.Player2SteamID} {
		if status, found := s.statuses[gamesession.PlayerKey{GameSessionID: sessionID, SteamID: steamID}]; found {
			statuses = append(statuses, clone(status))
		}
	}

	return statuses, nil
}

func (s *Store) GetPlayerStatus(_ context.Context, key gamesession.PlayerKey) (gamesession.PlayerStatus, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	status, found := s.statuses[key]
	if !found {
		return gamesession.PlayerStatus{}, gamesession.ErrStatusNotFound
	}

	return clone(status), nil
}

func (s *Store) EnsurePlayerStatus(_ context.Context, status gamesession.PlayerStatus) (gamesession.PlayerStatus, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if existing, found := s.statuses[status.Key()]; found {
		return clone(existing), nil
	}

	s.statuses[status.Key()] = clone(status)
	return status, nil
}

func (s *Store) UpdatePlayerStatus(_ context.Context, status gamesession.PlayerStatus) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	stored, found := s.statuses[status.Key()]
	if !found {
		return gamesession.ErrStatusNotFound
	}

	// lastTurnCompleted belongs to CompleteTurn, the caller's copy may be stale.
	update := clone(status)
	stored.Status = update.Status
	stored.Message = update.Message
	stored.UpdatedAt = update.UpdatedAt

	s.statuses[status.Key()] = stored
	return nil
}

func (s *Store) CompleteTurn(_ context.Context, transition gamesession.TurnTransition) (gamesession.GameSession, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	session, found := s.sessions[transition.SessionID]
	if !found {
		return gamesession.GameSession{}, gamesession.ErrSessionNotFound
	}

	if session.CurrentTurn != transition.Expected {
		return gamesession.GameSession{}, gamesession.ErrNotYourTurn
	}

	key := gamesession.PlayerKey{GameSessionID: session.ID, SteamID: transition.CompletedBy}
	status, found := s.statuses[key]
	if !found {
		return gamesession.GameSession{}, gamesession.ErrStatusNotFound
	}

	session.CurrentTurn = transition.Expected.Next()

	s.sessions[session.ID] = session
	s.statuses[key] = status.CompleteTurn(transition.CompletedAt)

	return session, nil
}

func (s *Store) SaveSubscription(_ context.Context, subscription notifications.Subscription) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.subscriptions[subscription.SteamID] = subscription
	return nil
}

func (s *Store) GetSubscription(_ context.Context, steamID string) (notifications.Subscription, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	subscription, found := s.subscriptions[steamID]
	if !found {
		return notifications.Subscription{}, notifications.ErrSubscriptionNotFound
	}

	return subscription, nil
}

// SubscriptionCount is used by tests to check upsert semantics.
func (s *Store) SubscriptionCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.subscriptions)
}

// clone detaches the optional fields so callers cannot alias stored rows.
func clone(status gamesession.PlayerStatus) gamesession.PlayerStatus {
	if status.Message != nil {
		m := *status.Message
		status.Message = &m
	}

	if status.LastTurnCompleted != nil {
		t := *status.LastTurnCompleted
		status.LastTurnCompleted = &t
	}

	return status
}
