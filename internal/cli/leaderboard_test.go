package cli

import (
	"bytes"
	"strings"
	"testing"

	"geoquiz-service/internal/domain"
)

func TestPrintLeaderboardUsesWindowPoints(t *testing.T) {
	entries := []domain.LeaderboardRecord{
		{UserID: "a", Username: "Ann", TotalPoints: 40, WeeklyPoints: 9, Rank: 1, QuizzesPlayed: 4},
		{UserID: "b", Username: "Ben", TotalPoints: 30, WeeklyPoints: 3, Rank: 2, QuizzesPlayed: 2},
	}
	var buf bytes.Buffer
	if err := printLeaderboard(&buf, domain.WindowWeekly, entries, 1); err != nil {
		t.Fatalf("print: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", buf.String())
	}
	fields := strings.Fields(lines[1])
	if fields[0] != "1" || fields[1] != "Ann" || fields[2] != "9" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
