package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"golang.org/x/crypto/bcrypt"
	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
	pgstore "trivia-quiz-service/internal/infra/postgres"
	pgmigrations "trivia-quiz-service/internal/infra/postgres/migrations"
	infraredis "trivia-quiz-service/internal/infra/redis"
)

type staticSource struct {
	items []domain.SourceQuestion
	calls int
}

func (s *staticSource) RequestKey(req domain.QuestionRequest) string {
	return fmt.Sprintf("static?amount=%d&category=%s&difficulty=%s", req.Count, req.Category, req.Difficulty)
}

func (s *staticSource) FetchQuestions(context.Context, domain.QuestionRequest) ([]domain.SourceQuestion, error) {
	s.calls++
	return s.items, nil
}

func TestPlayAndSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	users := pgstore.NewUserStore(db)
	attempts := pgstore.NewAttemptStore(pool)
	accounts := auth.NewService(users, auth.Options{Secret: "integration", BcryptCost: bcrypt.MinCost})

	source := &staticSource{items: []domain.SourceQuestion{
		{Question: "What is 2 + 2?", CorrectAnswer: "4", IncorrectAnswers: []string{"3", "5", "22"}},
		{Question: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"Lyon", "Nice"}},
	}}
	loader := app.NewQuestionLoader(source, infraredis.NewResponseCache(redisClient))
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	quiz := app.NewQuizService(sessions, loader, app.QuizOptions{QuestionCount: 2})
	submitter := app.NewAttemptSubmitter(accounts, attempts)
	history := app.NewHistoryAggregator(attempts)

	user, token, err := accounts.Register(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := accounts.Register(ctx, "alice", "another-pass"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	for round := 0; round < 2; round++ {
		session, err := quiz.StartSession(ctx, user.ID, "general", domain.DifficultyEasy)
		if err != nil {
			t.Fatalf("start session: %v", err)
		}
		if owner, err := redisClient.Get(ctx, "quiz:session:"+session.ID()).Result(); err != nil || owner != user.ID {
			t.Fatalf("expected liveness key for %s, got %q err=%v", user.ID, owner, err)
		}

		if _, err := session.Answer("4"); err != nil {
			t.Fatalf("answer: %v", err)
		}
		session.Advance()
		for session.Phase() != domain.PhaseCompleted {
			session.Tick()
		}

		result, err := submitter.Submit(ctx, session.Answers(), session.Category(), session.Difficulty(), token)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if result.Score != 1 {
			t.Fatalf("expected score 1, got %d", result.Score)
		}
		quiz.EndSession(session.ID())
	}
	if source.calls != 1 {
		t.Fatalf("expected the second load to hit the redis cache, got %d fetches", source.calls)
	}

	entries, err := history.History(ctx, user.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 || entries[0].CategoryName != "General Knowledge" {
		t.Fatalf("unexpected history: %+v", entries)
	}
	if entries[0].Questions[1].SelectedAnswer != nil {
		t.Fatalf("timed out answer must round-trip as null")
	}

	summary, err := history.TotalScore(ctx, user.ID)
	if err != nil {
		t.Fatalf("total score: %v", err)
	}
	if summary.TotalScore != 2 || summary.Attempts != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if _, err := db.ExecContext(ctx, `UPDATE attempts SET questions = '[{"question":"q","extra":1}]'::jsonb WHERE id = ?`, entries[0].ID); err != nil {
		t.Fatalf("corrupt attempt: %v", err)
	}
	if _, err := history.History(ctx, user.ID); !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected storage failure for a malformed record, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
