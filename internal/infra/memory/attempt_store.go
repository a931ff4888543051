package memory

import (
	"context"
	"fmt"
	"sync"

	"trivia-quiz-service/internal/domain"
)

// AttemptStore keeps attempts in memory, grouped by user. Useful for tests and
// for running the service without Postgres.
type AttemptStore struct {
	mu     sync.RWMutex
	byUser map[string][]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{byUser: make(map[string][]domain.Attempt)}
}

func (s *AttemptStore) Insert(_ context.Context, attempt domain.Attempt) error {
	if err := attempt.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[attempt.UserID] = append(s.byUser[attempt.UserID], copyAttempt(attempt))
	return nil
}

func (s *AttemptStore) FindByUser(_ context.Context, userID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.byUser[userID]
	out := make([]domain.Attempt, len(stored))
	for i, a := range stored {
		out[i] = copyAttempt(a)
	}
	return out, nil
}

func copyAttempt(a domain.Attempt) domain.Attempt {
	a.Questions = domain.CloneAnswers(a.Questions)
	return a
}
