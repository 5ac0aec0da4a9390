package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vocab-quiz/internal/app"
	"vocab-quiz/internal/config"
	"vocab-quiz/internal/infra/memory"
	"vocab-quiz/internal/infra/postgres"
	redisinfra "vocab-quiz/internal/infra/redis"
	"vocab-quiz/internal/infra/upstream"
	"vocab-quiz/internal/logging"
	transport "vocab-quiz/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the backend API.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	checks := map[string]transport.Checker{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
		checks["redis"] = transport.CheckFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info("using redis", "addr", cfg.Redis.Addr)
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to postgres")
	}

	var upstreamClient *upstream.Client
	if cfg.Upstream.URL != "" {
		upstreamClient = upstream.NewClient(cfg.Upstream.URL, &http.Client{Timeout: 15 * time.Second})
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	switch {
	case upstreamClient != nil:
		loader = upstreamClient
		logger.Info("questions from upstream")
	case pool != nil:
		loader = postgres.NewQuestionLoader(pool, cfg.Quiz.BankID)
		logger.Info("questions from postgres", "bank", cfg.Quiz.BankID)
	default:
		logger.Info("questions from built-in sample bank")
	}

	quizTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, cfg.Quiz.BankID, quizTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, quizTTL)
	}

	var results app.ResultRepository
	if pool != nil {
		pgResults := postgres.NewResultRepository(pool)
		checks["postgres"] = transport.CheckFunc(pgResults.Ping)
		results = pgResults
	} else {
		results = memory.NewResultRepository()
	}

	var guard app.SubmissionGuard
	if redisClient != nil {
		guard = redisinfra.NewSubmissionGuard(redisClient)
	} else {
		guard = memory.NewSubmissionGuard()
	}

	opts := []app.ResultOption{
		app.WithResultLogger(logger),
		app.WithDedupWindow(config.Duration(cfg.Quiz.DedupWindow, app.DefaultDedupWindow)),
	}
	if upstreamClient != nil {
		opts = append(opts, app.WithNotifier(upstreamClient))
	}

	router := transport.NewRouter(transport.Dependencies{
		Logger:    logger,
		Questions: app.NewQuestionService(questionRepo, logger),
		Results:   app.NewResultService(results, guard, app.NewLeaderboardHub(), opts...),
		Checks:    checks,
	})
	srv := transport.NewServer(":"+finalPort, logger, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})
	return g.Wait()
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
