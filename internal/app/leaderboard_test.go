package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/infra/memory"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestWindowKeys(t *testing.T) {
	cases := []struct {
		at     time.Time
		daily  string
		weekly string
	}{
		{time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC), "2026-10-18", "2026-W42"},
		{time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), "2026-10-19", "2026-W43"},
		{time.Date(2027, 1, 1, 12, 0, 0, 0, time.UTC), "2027-01-01", "2026-W53"},
	}
	for _, tc := range cases {
		if got := app.DailyKey(tc.at); got != tc.daily {
			t.Fatalf("daily key of %s: %s", tc.at, got)
		}
		if got := app.WeeklyKey(tc.at); got != tc.weekly {
			t.Fatalf("weekly key of %s: %s", tc.at, got)
		}
	}
}

func TestRecordResultRollsWindows(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	lb := app.NewLeaderboardWithClock(store, nil, clock.Now)

	if _, err := lb.RecordResult(ctx, "u1", "world", 5); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec, err := lb.RecordResult(ctx, "u1", "world", 3)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.TotalPoints != 8 || rec.DailyPoints != 8 || rec.WeeklyPoints != 8 || rec.QuizzesPlayed != 2 {
		t.Fatalf("unexpected same-day record %+v", rec)
	}

	// Monday starts a new day and a new ISO week
	clock.now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	rec, err = lb.RecordResult(ctx, "u1", "europe", 2)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.TotalPoints != 10 || rec.CorrectAnswers != 10 {
		t.Fatalf("all-time counters must accumulate: %+v", rec)
	}
	if rec.DailyPoints != 2 || rec.DailyKey != "2026-10-19" || rec.WeeklyPoints != 2 || rec.WeeklyKey != "2026-W43" {
		t.Fatalf("windows must restart: %+v", rec)
	}

	user, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Username != "u1" || user.QuizzesPlayed != 3 || user.CorrectAnswers != 10 {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.CategoryScores["world"] != 8 || user.CategoryScores["europe"] != 2 {
		t.Fatalf("unexpected category scores %v", user.CategoryScores)
	}
	if !user.LastActive.Equal(clock.now) || user.CreatedAt.Equal(clock.now) {
		t.Fatalf("unexpected timestamps created=%s last=%s", user.CreatedAt, user.LastActive)
	}
}

func TestRecordResultUsesLeaderboardTimezone(t *testing.T) {
	ctx := context.Background()
	// 02:00 UTC on Monday is still Sunday evening five hours west
	clock := &fakeClock{now: time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)}
	lb := app.NewLeaderboardWithClock(memory.NewStore(), time.FixedZone("UTC-5", -5*3600), clock.Now)

	rec, err := lb.RecordResult(ctx, "u1", "world", 1)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.DailyKey != "2026-10-18" || rec.WeeklyKey != "2026-W42" {
		t.Fatalf("expected keys in the configured zone, got %s / %s", rec.DailyKey, rec.WeeklyKey)
	}
}

func TestRankedOrdersAndBreaksTies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	lb := app.NewLeaderboardWithClock(store, nil, clock.Now)

	for user, correct := range map[string]int{"bob": 5, "amy": 5, "cat": 7, "dan": 0} {
		if _, err := lb.RecordResult(ctx, user, "world", correct); err != nil {
			t.Fatalf("record %s: %v", user, err)
		}
	}

	all, err := lb.Ranked(ctx, domain.WindowAll)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	want := []string{"cat", "amy", "bob", "dan"}
	if len(all) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), all)
	}
	for i, id := range want {
		if all[i].UserID != id || all[i].Rank != i+1 {
			t.Fatalf("position %d: expected %s rank %d, got %s rank %d", i, id, i+1, all[i].UserID, all[i].Rank)
		}
	}

	daily, err := lb.Ranked(ctx, domain.WindowDaily)
	if err != nil {
		t.Fatalf("rank daily: %v", err)
	}
	if len(daily) != 3 || daily[2].UserID != "bob" {
		t.Fatalf("zero-point entries must be left out of the daily view: %+v", daily)
	}
}

func TestRankedDropsStaleWindows(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	lb := app.NewLeaderboardWithClock(memory.NewStore(), nil, clock.Now)
	if _, err := lb.RecordResult(ctx, "u1", "world", 4); err != nil {
		t.Fatalf("record: %v", err)
	}

	clock.now = clock.now.Add(24 * time.Hour)
	daily, _ := lb.Ranked(ctx, domain.WindowDaily)
	weekly, _ := lb.Ranked(ctx, domain.WindowWeekly)
	all, _ := lb.Ranked(ctx, domain.WindowAll)
	if len(daily) != 0 || len(weekly) != 0 {
		t.Fatalf("stale windows must be empty: daily=%+v weekly=%+v", daily, weekly)
	}
	if len(all) != 1 || all[0].TotalPoints != 4 {
		t.Fatalf("all-time view must keep the record: %+v", all)
	}
}

func TestRankedEmptyAndUnknownWindow(t *testing.T) {
	lb := app.NewLeaderboard(memory.NewStore(), nil)
	ctx := context.Background()

	entries, err := lb.Ranked(ctx, domain.WindowWeekly)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty view, got %+v (%v)", entries, err)
	}
	if _, err := lb.Ranked(ctx, domain.Window("monthly")); !errors.Is(err, domain.ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
}

func TestRecordResultReportsPersistenceFailure(t *testing.T) {
	store := newFlakyStore()
	store.failLeaderboardUpdates = true
	lb := app.NewLeaderboard(store, nil)

	_, err := lb.RecordResult(context.Background(), "u1", "world", 3)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	user, err := store.GetUser(context.Background(), "u1")
	if err != nil || user.QuizzesPlayed != 1 || user.CorrectAnswers != 3 {
		t.Fatalf("profile is written before the leaderboard record: %+v (%v)", user, err)
	}
	if _, err := store.GetLeaderboardRecord(context.Background(), "u1"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("failed leaderboard write must leave no record, got %v", err)
	}

	store.failList = true
	if _, err := lb.Ranked(context.Background(), domain.WindowAll); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence from ranking, got %v", err)
	}
}

func TestRegisterRenamesUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	lb := app.NewLeaderboard(store, nil)

	u, err := lb.Register(ctx, "u1", "")
	if err != nil || u.Username != "u1" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected registration %+v (%v)", u, err)
	}
	u, err = lb.Register(ctx, "u1", "Alice")
	if err != nil || u.Username != "Alice" {
		t.Fatalf("unexpected rename %+v (%v)", u, err)
	}
	u, err = lb.Register(ctx, "u1", "")
	if err != nil || u.Username != "Alice" {
		t.Fatalf("empty name must keep the stored one, got %+v (%v)", u, err)
	}
}
