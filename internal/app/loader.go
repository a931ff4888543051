package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"trivia-quiz-service/internal/domain"
)

// DefaultQuestionCount is the batch size requested when the caller does not pick one.
const DefaultQuestionCount = 10

// sharedFetchTimeout bounds a coalesced fetch, which outlives any single caller.
const sharedFetchTimeout = 30 * time.Second

// QuestionSource fetches raw question batches from the upstream trivia provider.
type QuestionSource interface {
	// RequestKey returns the effective request (URL) used as the cache key.
	RequestKey(req domain.QuestionRequest) string
	FetchQuestions(ctx context.Context, req domain.QuestionRequest) ([]domain.SourceQuestion, error)
}

// ResponseCache memoizes decoded source responses by request key.
// Implementations never evict on their own.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// QuestionLoader turns source batches into validated, shuffled question sets.
type QuestionLoader struct {
	source QuestionSource
	cache  ResponseCache
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionLoader(source QuestionSource, cache ResponseCache) *QuestionLoader {
	return NewQuestionLoaderWithRand(source, cache, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuestionLoaderWithRand allows deterministic shuffles in tests.
func NewQuestionLoaderWithRand(source QuestionSource, cache ResponseCache, rnd *rand.Rand) *QuestionLoader {
	return &QuestionLoader{source: source, cache: cache, rnd: rnd}
}

// Load returns a complete question set or an error; never a partial set.
// The returned set always carries a concrete difficulty, so it can be submitted as is.
// Identical concurrent requests share one fetch. A caller that gives up
// returns its own context error without failing the others.
func (l *QuestionLoader) Load(ctx context.Context, category string, difficulty domain.Difficulty, count int) (domain.QuestionSet, error) {
	difficulty, err := domain.ParseDifficulty(string(difficulty))
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if difficulty == "" {
		difficulty = domain.DefaultDifficulty
	}
	if count <= 0 {
		count = DefaultQuestionCount
	}
	req := domain.QuestionRequest{Category: category, Difficulty: difficulty, Count: count}
	key := l.source.RequestKey(req)

	ch := l.sf.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return l.fetch(fetchCtx, key, req)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return domain.QuestionSet{}, ctx.Err()
	}
	if res.Err != nil {
		return domain.QuestionSet{}, res.Err
	}
	items := res.Val.([]domain.SourceQuestion)

	questions := make([]domain.Question, len(items))
	for i, item := range items {
		questions[i] = l.shuffled(item)
	}
	return domain.QuestionSet{
		Category:   category,
		Difficulty: difficulty,
		Questions:  questions,
	}, nil
}

func (l *QuestionLoader) fetch(ctx context.Context, key string, req domain.QuestionRequest) ([]domain.SourceQuestion, error) {
	if l.cache != nil {
		raw, ok, err := l.cache.Get(ctx, key)
		if err != nil {
			log.Printf("question cache read failed for %s: %v", key, err)
		}
		if ok {
			var cached []domain.SourceQuestion
			if err := json.Unmarshal(raw, &cached); err == nil && validateBatch(cached, req.Count) == nil {
				return cached, nil
			}
			log.Printf("question cache entry for %s is unusable, refetching", key)
		}
	}

	items, err := l.source.FetchQuestions(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if err := validateBatch(items, req.Count); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	if l.cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := l.cache.Set(ctx, key, raw); err != nil {
				log.Printf("question cache write failed for %s: %v", key, err)
			}
		}
	}
	return items, nil
}

// validateBatch requires exactly count items that each form a valid question.
func validateBatch(items []domain.SourceQuestion, count int) error {
	if len(items) != count {
		return fmt.Errorf("expected %d questions, got %d", count, len(items))
	}
	for _, item := range items {
		if err := toQuestion(item).Validate(); err != nil {
			return err
		}
	}
	return nil
}

func toQuestion(item domain.SourceQuestion) domain.Question {
	options := make([]string, 0, len(item.IncorrectAnswers)+1)
	options = append(options, item.CorrectAnswer)
	options = append(options, item.IncorrectAnswers...)
	return domain.Question{
		Prompt:        item.Question,
		Options:       options,
		CorrectAnswer: item.CorrectAnswer,
	}
}

func (l *QuestionLoader) shuffled(item domain.SourceQuestion) domain.Question {
	q := toQuestion(item)
	l.mu.Lock()
	l.rnd.Shuffle(len(q.Options), func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	})
	l.mu.Unlock()
	return q
}
