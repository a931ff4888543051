package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/opentdb"
	pgstore "trivia-quiz-service/internal/infra/postgres"
	redisstore "trivia-quiz-service/internal/infra/redis"
	transport "trivia-quiz-service/internal/transport/http"
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

// runServer loads and validates config, connects the stores, registers routes
// and listens, in that order. Any failure is returned before the server starts.
func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var cache app.ResponseCache = memory.NewResponseCache()
	var sessions app.SessionRepository = memory.NewSessionStore()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		cache = redisstore.NewResponseCache(redisClient)
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	}

	var attempts app.AttemptRepository = memory.NewAttemptStore()
	var users auth.UserRepository = memory.NewUserStore()
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		db := openBunDB(cfg.Postgres.URL)
		defer db.Close()

		attempts = pgstore.NewAttemptStore(pool)
		users = pgstore.NewUserStore(db)
	} else {
		log.Printf("postgres url not configured, users and attempts are kept in memory")
	}

	source, err := opentdb.NewClient(cfg.Quiz.SourceURL, config.TTLDuration(cfg.Quiz.SourceTimeout, 10*time.Second))
	if err != nil {
		return fmt.Errorf("question source: %w", err)
	}
	loader := app.NewQuestionLoader(source, cache)
	accounts := auth.NewService(users, auth.Options{
		Secret:     cfg.Auth.JWTSecret,
		TokenTTL:   config.TTLDuration(cfg.Auth.TokenTTL, auth.DefaultTokenTTL),
		BcryptCost: cfg.Auth.BcryptCost,
	})
	submitter := app.NewAttemptSubmitter(accounts, attempts)
	history := app.NewHistoryAggregator(attempts)
	quiz := app.NewQuizService(sessions, loader, app.QuizOptions{
		QuestionCount:   cfg.Quiz.QuestionCount,
		QuestionSeconds: cfg.Quiz.QuestionSeconds,
	})

	apiHandler := transport.NewAPIHandler(transport.APIDeps{
		Accounts:      accounts,
		Loader:        loader,
		Submitter:     submitter,
		History:       history,
		QuestionCount: cfg.Quiz.QuestionCount,
	})
	wsHandler := transport.NewWSHandler(quiz, accounts, submitter, config.TTLDuration(cfg.Quiz.TickInterval, time.Second))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(apiHandler, wsHandler, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
