package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/config"
	"geoquiz-service/internal/event"
	"geoquiz-service/internal/infra/memory"
	infraredis "geoquiz-service/internal/infra/redis"
	"geoquiz-service/internal/logger"
	transport "geoquiz-service/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	d, err := buildDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	var publisher app.EventPublisher = event.NewLogPublisher(log)
	if cfg.AMQP.URL != "" {
		exchange := cfg.AMQP.Exchange
		if exchange == "" {
			exchange = "geoquiz.events"
		}
		amqpPublisher, err := event.NewAMQPPublisher(cfg.AMQP.URL, exchange, log)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	loc, err := cfg.LeaderboardLocation()
	if err != nil {
		return err
	}

	var sessions app.SessionRepository = memory.NewSessionStore()
	if d.redis != nil {
		sessions = infraredis.NewSessionStore(d.redis, config.TTLDuration(cfg.Redis.TTL, time.Hour))
	}

	pools := app.NewPoolLoader(d.content, cfg.Quiz.MaxQuestions, log)
	leaderboard := app.NewLeaderboard(d.store, loc)
	achievements := app.NewAchievements(d.store)
	service := app.NewQuizService(sessions, pools, leaderboard, achievements,
		app.WithEventPublisher(publisher),
		app.WithLogger(log),
		app.WithSessionOptions(app.SessionOptions{
			QuestionTime: config.TTLDuration(cfg.Quiz.QuestionTime, app.DefaultQuestionTime),
			TickInterval: config.TTLDuration(cfg.Quiz.Tick, app.DefaultTickInterval),
		}),
	)

	router := transport.NewRouter(transport.API{
		Service:      service,
		Pools:        pools,
		Leaderboard:  leaderboard,
		Achievements: achievements,
		Catalog:      d.catalog,
		Log:          log,
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
