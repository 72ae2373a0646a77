package memory

import (
	"context"
	"errors"
	"sync"

	"geoquiz-service/internal/domain"
)

// Store is an in-process persistence provider. Each record is copied in and out, and
// updates run under the store lock so a user's record is never torn.
type Store struct {
	mu          sync.Mutex
	users       map[string]domain.UserRecord
	leaderboard map[string]domain.LeaderboardRecord
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]domain.UserRecord),
		leaderboard: make(map[string]domain.LeaderboardRecord),
	}
}

func (s *Store) GetUser(_ context.Context, userID string) (domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.UserRecord{}, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *Store) PutUser(_ context.Context, user domain.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user.Clone()
	return nil
}

func (s *Store) UpdateUser(_ context.Context, userID string, fn func(*domain.UserRecord) error) (domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[userID]
	if !ok {
		current = domain.UserRecord{UserID: userID}
	}
	next := current.Clone()
	if err := fn(&next); err != nil {
		if errors.Is(err, domain.ErrSkipWrite) {
			return current.Clone(), nil
		}
		return domain.UserRecord{}, err
	}
	next.UserID = userID
	s.users[userID] = next.Clone()
	return next, nil
}

func (s *Store) GetLeaderboardRecord(_ context.Context, userID string) (domain.LeaderboardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.leaderboard[userID]
	if !ok {
		return domain.LeaderboardRecord{}, domain.ErrRecordNotFound
	}
	return rec, nil
}

func (s *Store) PutLeaderboardRecord(_ context.Context, rec domain.LeaderboardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Rank = 0
	s.leaderboard[rec.UserID] = rec
	return nil
}

func (s *Store) UpdateLeaderboardRecord(_ context.Context, userID string, fn func(*domain.LeaderboardRecord) error) (domain.LeaderboardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.leaderboard[userID]
	if !ok {
		current = domain.LeaderboardRecord{UserID: userID}
	}
	next := current
	if err := fn(&next); err != nil {
		if errors.Is(err, domain.ErrSkipWrite) {
			return current, nil
		}
		return domain.LeaderboardRecord{}, err
	}
	next.UserID = userID
	next.Rank = 0
	s.leaderboard[userID] = next
	return next, nil
}

func (s *Store) ListLeaderboardRecords(_ context.Context) ([]domain.LeaderboardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LeaderboardRecord, 0, len(s.leaderboard))
	for _, rec := range s.leaderboard {
		out = append(out, rec)
	}
	return out, nil
}
