package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"geoquiz-service/internal/domain"
)

// DailyKey identifies the calendar day of t, e.g. "2026-10-18".
func DailyKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeeklyKey identifies the ISO week of t, e.g. "2026-W42".
func WeeklyKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Leaderboard merges session results into rolling per-user records and ranks them.
type Leaderboard struct {
	store Store
	now   func() time.Time
	loc   *time.Location
}

func NewLeaderboard(store Store, loc *time.Location) *Leaderboard {
	return NewLeaderboardWithClock(store, loc, time.Now)
}

// NewLeaderboardWithClock allows deterministic window keys in tests.
func NewLeaderboardWithClock(store Store, loc *time.Location, now func() time.Time) *Leaderboard {
	if loc == nil {
		loc = time.UTC
	}
	return &Leaderboard{store: store, now: now, loc: loc}
}

func (l *Leaderboard) currentKeys() (time.Time, string, string) {
	now := l.now().In(l.loc)
	return now, DailyKey(now), WeeklyKey(now)
}

// RecordResult adds one finished session to the user's profile and leaderboard record.
// All-time counters only grow; daily and weekly points restart from this session's
// contribution when the stored window key is stale.
//
// The profile is written before the leaderboard record, each in its own atomic update.
// If the second write fails the profile keeps the session and the leaderboard copy does
// not; achievements read the profile, so they still count it.
func (l *Leaderboard) RecordResult(ctx context.Context, userID, categoryID string, correct int) (domain.LeaderboardRecord, error) {
	now, daily, weekly := l.currentKeys()

	user, err := l.store.UpdateUser(ctx, userID, func(u *domain.UserRecord) error {
		if u.Username == "" {
			u.Username = userID
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		u.TotalPoints += correct
		u.QuizzesPlayed++
		u.CorrectAnswers += correct
		if categoryID != "" {
			if u.CategoryScores == nil {
				u.CategoryScores = make(map[string]int)
			}
			u.CategoryScores[categoryID] += correct
		}
		u.LastActive = now
		return nil
	})
	if err != nil {
		return domain.LeaderboardRecord{}, fmt.Errorf("%w: update user %s: %v", domain.ErrPersistence, userID, err)
	}

	rec, err := l.store.UpdateLeaderboardRecord(ctx, userID, func(r *domain.LeaderboardRecord) error {
		r.Username = user.Username
		r.TotalPoints += correct
		r.QuizzesPlayed++
		r.CorrectAnswers += correct

		if r.DailyKey == daily {
			r.DailyPoints += correct
		} else {
			r.DailyPoints = correct
			r.DailyKey = daily
		}
		if r.WeeklyKey == weekly {
			r.WeeklyPoints += correct
		} else {
			r.WeeklyPoints = correct
			r.WeeklyKey = weekly
		}
		r.LastUpdated = now
		return nil
	})
	if err != nil {
		return domain.LeaderboardRecord{}, fmt.Errorf("%w: update leaderboard %s: %v", domain.ErrPersistence, userID, err)
	}
	return rec, nil
}

// Register creates the user's profile or renames it. An empty username keeps the
// stored one, defaulting to the user id.
func (l *Leaderboard) Register(ctx context.Context, userID, username string) (domain.UserRecord, error) {
	now, _, _ := l.currentKeys()
	user, err := l.store.UpdateUser(ctx, userID, func(u *domain.UserRecord) error {
		changed := false
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
			u.LastActive = now
			changed = true
		}
		switch {
		case username != "" && u.Username != username:
			u.Username = username
			changed = true
		case u.Username == "":
			u.Username = userID
			changed = true
		}
		if !changed {
			return domain.ErrSkipWrite
		}
		return nil
	})
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("%w: register user %s: %v", domain.ErrPersistence, userID, err)
	}
	return user, nil
}

// Ranked returns the records of a window ordered by its points, ranks starting at 1.
// Ties keep distinct consecutive ranks, ordered by user id.
func (l *Leaderboard) Ranked(ctx context.Context, window domain.Window) ([]domain.LeaderboardRecord, error) {
	records, err := l.store.ListLeaderboardRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list leaderboard: %v", domain.ErrPersistence, err)
	}
	_, daily, weekly := l.currentKeys()

	var points func(domain.LeaderboardRecord) int
	view := make([]domain.LeaderboardRecord, 0, len(records))
	switch window {
	case domain.WindowAll:
		points = func(r domain.LeaderboardRecord) int { return r.TotalPoints }
		view = append(view, records...)
	case domain.WindowDaily:
		points = func(r domain.LeaderboardRecord) int { return r.DailyPoints }
		for _, r := range records {
			if r.DailyKey == daily && r.DailyPoints > 0 {
				view = append(view, r)
			}
		}
	case domain.WindowWeekly:
		points = func(r domain.LeaderboardRecord) int { return r.WeeklyPoints }
		for _, r := range records {
			if r.WeeklyKey == weekly && r.WeeklyPoints > 0 {
				view = append(view, r)
			}
		}
	default:
		return nil, domain.ErrUnknownWindow
	}

	sort.SliceStable(view, func(i, j int) bool {
		pi, pj := points(view[i]), points(view[j])
		if pi != pj {
			return pi > pj
		}
		return view[i].UserID < view[j].UserID
	})
	for i := range view {
		view[i].Rank = i + 1
	}
	return view, nil
}

// Record returns a single user's record; absent users get a zero record.
func (l *Leaderboard) Record(ctx context.Context, userID string) (domain.LeaderboardRecord, error) {
	rec, err := l.store.GetLeaderboardRecord(ctx, userID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.LeaderboardRecord{UserID: userID}, nil
	}
	if err != nil {
		return domain.LeaderboardRecord{}, fmt.Errorf("%w: get leaderboard %s: %v", domain.ErrPersistence, userID, err)
	}
	return rec, nil
}
