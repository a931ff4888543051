package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"trivia-quiz-service/internal/domain"
)

// IdentityResolver resolves a bearer credential to a user identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

// AttemptRepository is the append-only store of completed attempts.
type AttemptRepository interface {
	Insert(ctx context.Context, attempt domain.Attempt) error
	FindByUser(ctx context.Context, userID string) ([]domain.Attempt, error)
}

// AttemptSubmitter scores a finished session and persists it as one attempt.
type AttemptSubmitter struct {
	identity IdentityResolver
	attempts AttemptRepository
	now      func() time.Time
}

func NewAttemptSubmitter(identity IdentityResolver, attempts AttemptRepository) *AttemptSubmitter {
	return &AttemptSubmitter{identity: identity, attempts: attempts, now: time.Now}
}

// Submit authenticates token, validates and scores answers, and stores one
// attempt. Nothing is stored when it returns an error; an expired token yields
// domain.ErrSessionExpired and must not be retried with the same token.
func (s *AttemptSubmitter) Submit(ctx context.Context, answers []domain.AnsweredQuestion, category string, difficulty domain.Difficulty, token string) (domain.SubmissionResult, error) {
	identity, err := s.identity.Resolve(ctx, token)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if identity.Expired {
		return domain.SubmissionResult{}, domain.ErrSessionExpired
	}
	if !identity.Valid || identity.UserID == "" {
		return domain.SubmissionResult{}, domain.ErrUnauthenticated
	}

	if err := validateSubmission(answers, category, difficulty); err != nil {
		return domain.SubmissionResult{}, err
	}

	attempt := domain.Attempt{
		ID:         uuid.NewString(),
		UserID:     identity.UserID,
		Category:   category,
		Difficulty: difficulty,
		Score:      Score(answers),
		Questions:  domain.CloneAnswers(answers),
		Timestamp:  s.now().UTC(),
	}
	if err := s.attempts.Insert(ctx, attempt); err != nil {
		if errors.Is(err, domain.ErrStorageFailure) {
			return domain.SubmissionResult{}, err
		}
		return domain.SubmissionResult{}, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	return domain.SubmissionResult{
		AttemptID: attempt.ID,
		Score:     attempt.Score,
		Timestamp: attempt.Timestamp,
	}, nil
}

func validateSubmission(answers []domain.AnsweredQuestion, category string, difficulty domain.Difficulty) error {
	if len(answers) == 0 {
		return fmt.Errorf("%w: no answers", domain.ErrInvalidSubmission)
	}
	if category == "" {
		return fmt.Errorf("%w: missing category", domain.ErrInvalidSubmission)
	}
	if !difficulty.Valid() {
		return fmt.Errorf("%w: invalid difficulty %q", domain.ErrInvalidSubmission, difficulty)
	}
	for i, a := range answers {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%w: answer %d: %v", domain.ErrInvalidSubmission, i, err)
		}
	}
	return nil
}
