package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-quiz-service/internal/domain"
)

// AttemptStore persists attempts in Postgres with the answered questions as JSONB.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Insert(ctx context.Context, attempt domain.Attempt) error {
	if err := attempt.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	questions, err := json.Marshal(attempt.Questions)
	if err != nil {
		return fmt.Errorf("%w: encode questions: %v", domain.ErrStorageFailure, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO attempts (id, user_id, category, difficulty, score, questions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		attempt.ID, attempt.UserID, attempt.Category, string(attempt.Difficulty),
		attempt.Score, questions, attempt.Timestamp,
	)
	if err != nil {
		log.Printf("postgres: insert attempt %s: %v", attempt.ID, err)
		return fmt.Errorf("%w: insert attempt", domain.ErrStorageFailure)
	}
	return nil
}

func (s *AttemptStore) FindByUser(ctx context.Context, userID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, category, difficulty, score, questions, created_at
		 FROM attempts WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		log.Printf("postgres: query attempts for %s: %v", userID, err)
		return nil, fmt.Errorf("%w: query attempts", domain.ErrStorageFailure)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var (
			a          domain.Attempt
			difficulty string
			raw        []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Category, &difficulty, &a.Score, &raw, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan attempt: %v", domain.ErrStorageFailure, err)
		}
		a.Difficulty = domain.Difficulty(difficulty)
		a.Questions, err = decodeQuestions(raw)
		if err != nil {
			log.Printf("postgres: attempt %s is malformed: %v", a.ID, err)
			return nil, fmt.Errorf("%w: attempt %s: %v", domain.ErrStorageFailure, a.ID, err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("%w: attempt %s: %v", domain.ErrStorageFailure, a.ID, err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read attempts: %v", domain.ErrStorageFailure, err)
	}
	return attempts, nil
}

// decodeQuestions rejects unknown fields and records that fail validation.
func decodeQuestions(raw []byte) ([]domain.AnsweredQuestion, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var questions []domain.AnsweredQuestion
	if err := dec.Decode(&questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
	}
	return questions, nil
}
