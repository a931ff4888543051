package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"trivia-quiz-service/internal/domain"
)

// HistoryAggregator derives read-only views over a user's stored attempts.
type HistoryAggregator struct {
	attempts AttemptRepository
}

func NewHistoryAggregator(attempts AttemptRepository) *HistoryAggregator {
	return &HistoryAggregator{attempts: attempts}
}

// History returns the user's attempts newest first. An empty slice with a nil
// error means the user has no history.
func (h *HistoryAggregator) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	attempts, err := h.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].Timestamp.After(attempts[j].Timestamp)
	})

	entries := make([]domain.HistoryEntry, len(attempts))
	for i, a := range attempts {
		entries[i] = domain.HistoryEntry{
			Attempt:      a,
			CategoryName: domain.CategoryName(a.Category),
		}
	}
	return entries, nil
}

// TotalScore sums the scores of all the user's attempts. A user without any
// attempts gets domain.ErrNoHistory rather than a zero total.
func (h *HistoryAggregator) TotalScore(ctx context.Context, userID string) (domain.ScoreSummary, error) {
	attempts, err := h.find(ctx, userID)
	if err != nil {
		return domain.ScoreSummary{}, err
	}
	if len(attempts) == 0 {
		return domain.ScoreSummary{}, domain.ErrNoHistory
	}

	summary := domain.ScoreSummary{Attempts: len(attempts)}
	for _, a := range attempts {
		summary.TotalScore += a.Score
	}
	return summary, nil
}

func (h *HistoryAggregator) find(ctx context.Context, userID string) ([]domain.Attempt, error) {
	attempts, err := h.attempts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrStorageFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	// Sort a copy so stored records are never reordered.
	out := make([]domain.Attempt, len(attempts))
	copy(out, attempts)
	return out, nil
}
