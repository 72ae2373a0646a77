package app_test

import (
	"context"
	"errors"
	"fmt"

	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/infra/memory"
)

var errBackendDown = errors.New("backend down")

// makeQuestions builds n playable questions; question i has option i%4 correct and is
// worth i%3+1 points.
func makeQuestions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			ID:           fmt.Sprintf("q%02d", i),
			Text:         fmt.Sprintf("Question %d?", i),
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: i % 4,
			Explanation:  fmt.Sprintf("Because %d.", i),
			Difficulty:   "medium",
			Points:       i%3 + 1,
		}
	}
	return qs
}

func makePayload(id, name string, n int) domain.CategoryPayload {
	raw := make(map[string]domain.RawQuestion, n)
	for i, q := range makeQuestions(n) {
		idx := q.CorrectIndex
		raw[q.ID] = domain.RawQuestion{
			Text:         q.Text,
			Options:      domain.OptionSet(q.Options),
			CorrectIndex: &idx,
			Explanation:  q.Explanation,
			Points:       i%3 + 1,
		}
	}
	return domain.CategoryPayload{ID: id, Name: name, Questions: raw}
}

// flakyStore wraps the memory store and fails chosen operations.
type flakyStore struct {
	*memory.Store
	failUserUpdates        bool
	failLeaderboardUpdates bool
	failList               bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: memory.NewStore()}
}

func (s *flakyStore) UpdateUser(ctx context.Context, userID string, fn func(*domain.UserRecord) error) (domain.UserRecord, error) {
	if s.failUserUpdates {
		return domain.UserRecord{}, errBackendDown
	}
	return s.Store.UpdateUser(ctx, userID, fn)
}

func (s *flakyStore) UpdateLeaderboardRecord(ctx context.Context, userID string, fn func(*domain.LeaderboardRecord) error) (domain.LeaderboardRecord, error) {
	if s.failLeaderboardUpdates {
		return domain.LeaderboardRecord{}, errBackendDown
	}
	return s.Store.UpdateLeaderboardRecord(ctx, userID, fn)
}

func (s *flakyStore) ListLeaderboardRecords(ctx context.Context) ([]domain.LeaderboardRecord, error) {
	if s.failList {
		return nil, errBackendDown
	}
	return s.Store.ListLeaderboardRecords(ctx)
}
