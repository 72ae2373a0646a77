package app

import (
	"context"

	"geoquiz-service/internal/domain"
)

// Store abstracts the persistence provider (in-memory, Redis, Postgres, Mongo).
//
// Update callbacks receive the stored record, or a zero record carrying only the key when
// none exists, and mutate it in place. Implementations must apply the read-modify-write
// atomically per key and leave the committed record untouched when the callback or the
// write fails. A callback returning domain.ErrSkipWrite aborts without writing and
// without error.
type Store interface {
	GetUser(ctx context.Context, userID string) (domain.UserRecord, error)
	PutUser(ctx context.Context, user domain.UserRecord) error
	UpdateUser(ctx context.Context, userID string, fn func(*domain.UserRecord) error) (domain.UserRecord, error)

	GetLeaderboardRecord(ctx context.Context, userID string) (domain.LeaderboardRecord, error)
	PutLeaderboardRecord(ctx context.Context, rec domain.LeaderboardRecord) error
	UpdateLeaderboardRecord(ctx context.Context, userID string, fn func(*domain.LeaderboardRecord) error) (domain.LeaderboardRecord, error)
	ListLeaderboardRecords(ctx context.Context) ([]domain.LeaderboardRecord, error)
}

// SessionRepository tracks the active session of each user.
type SessionRepository interface {
	// Put stores the session and returns the one it replaced, if any.
	Put(userID string, session *Session) *Session
	Get(userID string) (*Session, bool)
	// Delete removes the entry only if it still points at session.
	Delete(userID string, session *Session)
	// ActiveSessionID reports the id of the session the user is playing, which a shared
	// backend may know about even when another instance owns the session.
	ActiveSessionID(ctx context.Context, userID string) (string, bool)
}

// EventPublisher broadcasts domain events to other services.
type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) error { return nil }
