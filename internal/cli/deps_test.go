package cli

import (
	"context"
	"testing"
	"time"

	"geoquiz-service/internal/config"
	"geoquiz-service/internal/domain"
	infraredis "geoquiz-service/internal/infra/redis"
	miniredis "github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

func TestPostgresPoolConfig(t *testing.T) {
	var cfg config.Config
	cfg.Postgres.MaxConns = 12
	cfg.Postgres.MaxConnLifetime = "45m"

	pc := postgresPoolConfig(cfg)
	if pc.MaxConns != 12 || pc.MaxConnLifetime != 45*time.Minute {
		t.Fatalf("unexpected pool config %+v", pc)
	}

	cfg.Postgres.MaxConnLifetime = ""
	if pc := postgresPoolConfig(cfg); pc.MaxConnLifetime != 0 {
		t.Fatalf("expected driver default lifetime, got %s", pc.MaxConnLifetime)
	}
}

func TestBuildDepsWithRedisCachesContent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	var cfg config.Config
	cfg.Redis.Addr = mr.Addr()
	ctx := context.Background()

	d, err := buildDeps(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build deps: %v", err)
	}
	defer d.Close()
	if d.cache == nil || d.catalog == nil {
		t.Fatalf("expected redis content cache and catalog, got %+v", d)
	}

	cats, err := d.catalog.Categories(ctx)
	if err != nil || len(cats) == 0 {
		t.Fatalf("expected sample categories, got %+v (%v)", cats, err)
	}
	if _, err := d.content.FetchCategory(ctx, cats[0].ID); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	key := "trivia:content:" + cats[0].ID
	if !mr.Exists(key) {
		t.Fatalf("expected %s cached", key)
	}

	payloads := []domain.CategoryPayload{{ID: cats[0].ID}}
	if err := invalidateSeeded(ctx, d.cache, payloads, zap.NewNop()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("expected %s invalidated after seeding", key)
	}
}

var _ contentInvalidator = (*infraredis.ContentCache)(nil)
