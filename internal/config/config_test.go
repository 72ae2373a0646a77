package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
log:
  env: production
store:
  driver: redis
redis:
  addr: localhost:6379
  ttl: 5m
postgres:
  url: postgres://localhost/geoquiz
  max_conns: 8
  max_conn_lifetime: 30m
quiz:
  question_time: 20s
  max_questions: 10
leaderboard:
  timezone: Europe/Berlin
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Log.Env != "production" || cfg.StoreDriver() != DriverRedis {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := TTLDuration(cfg.Quiz.QuestionTime, 30*time.Second); got != 20*time.Second {
		t.Fatalf("question time %s", got)
	}
	if cfg.Postgres.MaxConns != 8 || TTLDuration(cfg.Postgres.MaxConnLifetime, 0) != 30*time.Minute {
		t.Fatalf("unexpected postgres section %+v", cfg.Postgres)
	}
	if cfg.Quiz.MaxQuestions != 10 {
		t.Fatalf("max questions %d", cfg.Quiz.MaxQuestions)
	}
	loc, err := cfg.LeaderboardLocation()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Fatalf("location %v (%v)", loc, err)
	}
}

func TestLoadRejectsIncompleteDriver(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: postgres\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for postgres without url")
	}
	path = writeConfig(t, "store:\n  driver: cassandra\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.StoreDriver() != DriverMemory {
		t.Fatalf("expected memory driver by default")
	}
	if loc, _ := cfg.LeaderboardLocation(); loc != time.UTC {
		t.Fatalf("expected UTC by default, got %v", loc)
	}
	if got := TTLDuration("nonsense", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
}
