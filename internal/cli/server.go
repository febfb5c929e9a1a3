package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"procureiq-quiz-service/internal/app"
	"procureiq-quiz-service/internal/config"
	fsloader "procureiq-quiz-service/internal/infra/fs"
	"procureiq-quiz-service/internal/infra/memory"
	pgloader "procureiq-quiz-service/internal/infra/postgres"
	redisinfra "procureiq-quiz-service/internal/infra/redis"
	"procureiq-quiz-service/internal/logger"
	transport "procureiq-quiz-service/internal/transport/http"
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
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	loader, err := buildLoader(ctx, cfg, log)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var store app.SessionRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		store = memory.NewSessionStore()
	}

	opts := []app.Option{app.WithLogger(log)}
	if cfg.Quiz.DeliverCount > 0 {
		opts = append(opts, app.WithDeliverCount(cfg.Quiz.DeliverCount))
	}
	service := app.NewQuizService(store, quizRepo, opts...)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewMux(service, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "err", err)
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

// buildLoader picks the content store: a directory wins over Postgres,
// and the bundled demo quiz is used when neither is configured.
func buildLoader(ctx context.Context, cfg config.Config, log *logger.Logger) (memory.QuizLoader, error) {
	if cfg.Content.Dir != "" {
		log.Info("serving quizzes from directory", "dir", cfg.Content.Dir)
		return fsloader.NewQuizLoader(cfg.Content.Dir)
	}
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		log.Info("serving quizzes from postgres")
		return pgloader.NewQuizLoader(pool), nil
	}
	log.Warn("no content store configured, serving the bundled demo quiz", "slug", memory.SampleSlug)
	return memory.NewStaticQuizLoader(memory.SampleContent()), nil
}
