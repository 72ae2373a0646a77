package redis

import (
	"context"
	"sync"
	"time"

	"geoquiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository keyed by user.
// Sessions own timers and subscriber channels, so they stay in a local map; Redis holds
// a liveness marker (trivia:session:{userID} = sessionID) that other instances can
// inspect to see who is mid-quiz.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(userID string, session *app.Session) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.sessions[userID]
	s.sessions[userID] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(userID), session.ID(), s.ttl).Err()
	return prev
}

func (s *SessionStore) Get(userID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *SessionStore) Delete(userID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[userID]
	if !ok || current != session {
		return
	}
	delete(s.sessions, userID)
	_ = s.client.Del(context.Background(), s.key(userID)).Err()
}

// ActiveSessionID reads the liveness marker of a user, which may have been written by
// another instance.
func (s *SessionStore) ActiveSessionID(ctx context.Context, userID string) (string, bool) {
	id, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		return "", false
	}
	return id, true
}

func (s *SessionStore) key(userID string) string {
	return "trivia:session:" + userID
}
