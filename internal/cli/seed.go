package cli

import (
	"context"
	"fmt"

	"geoquiz-service/internal/config"
	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/infra/file"
	"geoquiz-service/internal/infra/postgres"
	"geoquiz-service/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd imports a question bundle into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var bundlePath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a question bundle into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, bundlePath)
		},
	}
	cmd.Flags().StringVar(&bundlePath, "bundle", "", "path to the JSON question bundle (defaults to quiz.bundle_path)")
	return cmd
}

func runSeed(ctx context.Context, configPath, bundlePath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if bundlePath == "" {
		bundlePath = cfg.Quiz.BundlePath
	}
	if bundlePath == "" {
		return fmt.Errorf("no bundle given: pass --bundle or set quiz.bundle_path")
	}
	bundle, err := file.ReadBundle(bundlePath)
	if err != nil {
		return err
	}

	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrateDB(ctx, db, log); err != nil {
		return err
	}

	payloads := bundle.Payloads()
	n, err := postgres.SeedCategories(ctx, db, payloads)
	if err != nil {
		return err
	}
	log.Info("categories seeded", zap.Int("categories", n), zap.String("bundle", bundlePath))

	if cfg.Redis.Addr == "" {
		return nil
	}
	d, err := buildDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()
	if d.cache == nil {
		return nil
	}
	return invalidateSeeded(ctx, d.cache, payloads, log)
}

type contentInvalidator interface {
	Invalidate(ctx context.Context, categoryIDs ...string) error
}

// invalidateSeeded drops cached copies of the seeded categories so running servers
// serve the new questions on their next fetch.
func invalidateSeeded(ctx context.Context, cache contentInvalidator, payloads []domain.CategoryPayload, log *zap.Logger) error {
	if len(payloads) == 0 {
		return nil
	}
	ids := make([]string, len(payloads))
	for i, p := range payloads {
		ids[i] = p.ID
	}
	if err := cache.Invalidate(ctx, ids...); err != nil {
		return fmt.Errorf("invalidate content cache: %w", err)
	}
	log.Info("content cache invalidated", zap.Strings("categories", ids))
	return nil
}
