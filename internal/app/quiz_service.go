package app

import (
	"context"

	"github.com/google/uuid"
	"trivia-quiz-service/internal/domain"
)

// SessionRepository abstracts where live sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuestionSetLoader loads a question set for a category and difficulty.
type QuestionSetLoader interface {
	Load(ctx context.Context, category string, difficulty domain.Difficulty, count int) (domain.QuestionSet, error)
}

// QuizService contains the live-session use cases.
type QuizService struct {
	sessions        SessionRepository
	loader          QuestionSetLoader
	questionCount   int
	questionSeconds int
}

// QuizOptions tunes new sessions.
type QuizOptions struct {
	QuestionCount   int
	QuestionSeconds int
}

func NewQuizService(store SessionRepository, loader QuestionSetLoader, opts QuizOptions) *QuizService {
	return &QuizService{
		sessions:        store,
		loader:          loader,
		questionCount:   opts.QuestionCount,
		questionSeconds: opts.QuestionSeconds,
	}
}

// StartSession loads a question set and registers a new session owned by userID.
// No session exists when loading fails.
func (s *QuizService) StartSession(ctx context.Context, userID, category string, difficulty domain.Difficulty) (*Session, error) {
	if category == "" {
		category = "any"
	}

	set, err := s.loader.Load(ctx, category, difficulty, s.questionCount)
	if err != nil {
		return nil, err
	}

	session := NewSession(set, SessionOptions{
		ID:              uuid.NewString(),
		UserID:          userID,
		QuestionSeconds: s.questionSeconds,
	})
	s.sessions.Save(session)
	return session, nil
}

// EndSession discards a session after completion or when its owner leaves.
func (s *QuizService) EndSession(sessionID string) {
	s.sessions.Delete(sessionID)
}
