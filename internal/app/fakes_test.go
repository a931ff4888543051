package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trivia-quiz-service/internal/domain"
)

type fakeSource struct {
	items   []domain.SourceQuestion
	err     error
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (s *fakeSource) RequestKey(req domain.QuestionRequest) string {
	return fmt.Sprintf("fake?amount=%d&category=%s&difficulty=%s", req.Count, req.Category, req.Difficulty)
}

func (s *fakeSource) FetchQuestions(ctx context.Context, req domain.QuestionRequest) ([]domain.SourceQuestion, error) {
	if s.calls.Add(1) == 1 && s.entered != nil {
		close(s.entered)
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if req.Count < len(s.items) {
		return s.items[:req.Count], nil
	}
	return s.items, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

type fakeIdentity struct {
	identity domain.Identity
	err      error
}

func (f fakeIdentity) Resolve(context.Context, string) (domain.Identity, error) {
	return f.identity, f.err
}

func validIdentity(userID string) fakeIdentity {
	return fakeIdentity{identity: domain.Identity{UserID: userID, Username: userID, Valid: true}}
}

type fakeAttempts struct {
	mu        sync.Mutex
	stored    []domain.Attempt
	insertErr error
	findErr   error
}

func (f *fakeAttempts) Insert(_ context.Context, a domain.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.stored = append(f.stored, a)
	return nil
}

func (f *fakeAttempts) FindByUser(_ context.Context, userID string) ([]domain.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []domain.Attempt
	for _, a := range f.stored {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttempts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*Session)}
}

func (f *fakeSessions) Save(s *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID()] = s
}

func (f *fakeSessions) Get(id string) (*Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	return s, ok
}

func (f *fakeSessions) Delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
}

func (f *fakeSessions) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

var errBoom = errors.New("boom")

func sourceItems(n int) []domain.SourceQuestion {
	items := make([]domain.SourceQuestion, n)
	for i := range items {
		items[i] = domain.SourceQuestion{
			Question:         fmt.Sprintf("Question %d?", i+1),
			CorrectAnswer:    fmt.Sprintf("right-%d", i+1),
			IncorrectAnswers: []string{fmt.Sprintf("wrong-%d-a", i+1), fmt.Sprintf("wrong-%d-b", i+1), fmt.Sprintf("wrong-%d-c", i+1)},
		}
	}
	return items
}

func questionSet(n int) domain.QuestionSet {
	set := domain.QuestionSet{Category: "general", Difficulty: domain.DifficultyEasy}
	for _, item := range sourceItems(n) {
		set.Questions = append(set.Questions, toQuestion(item))
	}
	return set
}

func strPtr(s string) *string { return &s }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
