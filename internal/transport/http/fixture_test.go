package http

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

const testSecret = "test-secret"

type stubSource struct {
	items []domain.SourceQuestion
	err   error
}

func (s stubSource) RequestKey(req domain.QuestionRequest) string {
	return fmt.Sprintf("stub?amount=%d&category=%s&difficulty=%s", req.Count, req.Category, req.Difficulty)
}

func (s stubSource) FetchQuestions(_ context.Context, req domain.QuestionRequest) ([]domain.SourceQuestion, error) {
	if s.err != nil {
		return nil, s.err
	}
	if req.Count > len(s.items) {
		return nil, domain.ErrSourceUnavailable
	}
	return s.items[:req.Count], nil
}

func sampleItems() []domain.SourceQuestion {
	return []domain.SourceQuestion{
		{Question: "What is 2 + 2?", CorrectAnswer: "4", IncorrectAnswers: []string{"3", "5", "22"}},
		{Question: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"Lyon", "Nice", "Lille"}},
	}
}

type testEnv struct {
	server   *httptest.Server
	accounts *auth.Service
	attempts *memory.AttemptStore
	sessions *memory.SessionStore
}

type envOptions struct {
	source          app.QuestionSource
	questionSeconds int
	tickInterval    time.Duration
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	if opts.source == nil {
		opts.source = stubSource{items: sampleItems()}
	}
	if opts.tickInterval == 0 {
		opts.tickInterval = time.Hour
	}

	users := memory.NewUserStore()
	attempts := memory.NewAttemptStore()
	sessions := memory.NewSessionStore()

	accounts := auth.NewService(users, auth.Options{Secret: testSecret, BcryptCost: bcrypt.MinCost})
	loader := app.NewQuestionLoader(opts.source, memory.NewResponseCache())
	submitter := app.NewAttemptSubmitter(accounts, attempts)
	history := app.NewHistoryAggregator(attempts)
	quiz := app.NewQuizService(sessions, loader, app.QuizOptions{QuestionCount: 2, QuestionSeconds: opts.questionSeconds})

	api := NewAPIHandler(APIDeps{
		Accounts:      accounts,
		Loader:        loader,
		Submitter:     submitter,
		History:       history,
		QuestionCount: 2,
	})
	ws := NewWSHandler(quiz, accounts, submitter, opts.tickInterval)

	server := httptest.NewServer(NewRouter(api, ws, nil))
	t.Cleanup(server.Close)
	return &testEnv{server: server, accounts: accounts, attempts: attempts, sessions: sessions}
}

func (e *testEnv) register(t *testing.T, username string) (domain.User, string) {
	t.Helper()
	user, token, err := e.accounts.Register(context.Background(), username, "correct-horse")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user, token
}
