package cli

import (
	"context"
	"fmt"
	"time"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/config"
	"geoquiz-service/internal/infra/file"
	"geoquiz-service/internal/infra/memory"
	mongostore "geoquiz-service/internal/infra/mongo"
	"geoquiz-service/internal/infra/postgres"
	infraredis "geoquiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// deps holds the backends selected by the config.
type deps struct {
	store   app.Store
	content app.ContentSource
	catalog app.CategoryCatalog
	cache   *infraredis.ContentCache
	redis   *redis.Client
	pool    *pgxpool.Pool
	closers []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func buildDeps(ctx context.Context, cfg config.Config, log *zap.Logger) (*deps, error) {
	d := &deps{}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = d.redis.Close() })
		if err := d.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
	}

	if cfg.Postgres.URL != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres.URL, postgresPoolConfig(cfg))
		if err != nil {
			return nil, err
		}
		d.pool = pool
		d.closers = append(d.closers, pool.Close)
	}

	switch cfg.StoreDriver() {
	case config.DriverMemory:
		d.store = memory.NewStore()
	case config.DriverRedis:
		d.store = infraredis.NewStore(d.redis)
	case config.DriverPostgres:
		d.store = postgres.NewStore(d.pool)
	case config.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = client.Disconnect(context.Background()) })
		database := cfg.Mongo.Database
		if database == "" {
			database = "geoquiz"
		}
		d.store = mongostore.NewStore(client.Database(database))
	}
	log.Info("persistence provider ready", zap.String("driver", cfg.StoreDriver()))

	var base interface {
		app.ContentSource
		app.CategoryCatalog
	}
	switch {
	case cfg.Quiz.BundlePath != "":
		base = file.NewBundleSource(cfg.Quiz.BundlePath)
		log.Info("serving questions from bundle", zap.String("path", cfg.Quiz.BundlePath))
	case d.pool != nil:
		base = postgres.NewContentSource(d.pool)
		log.Info("serving questions from postgres")
	default:
		base = memory.NewStaticSource(sampleCategories())
		log.Warn("no question source configured, serving built-in sample categories")
	}
	d.catalog = base

	contentTTL := config.TTLDuration(cfg.Quiz.ContentTTL, 10*time.Minute)
	if d.redis != nil {
		d.cache = infraredis.NewContentCache(d.redis, base, contentTTL)
		d.content = d.cache
	} else {
		d.content = memory.NewCachedSource(base, contentTTL)
	}

	ok = true
	return d, nil
}

func postgresPoolConfig(cfg config.Config) postgres.PoolConfig {
	return postgres.PoolConfig{
		MaxConns:        cfg.Postgres.MaxConns,
		MaxConnLifetime: config.TTLDuration(cfg.Postgres.MaxConnLifetime, 0),
	}
}
