package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trivia-quiz-service/internal/domain"
)

func TestStartSessionRegistersSession(t *testing.T) {
	sessions := newFakeSessions()
	loader := NewQuestionLoader(&fakeSource{items: sourceItems(4)}, newMapCache())
	service := NewQuizService(sessions, loader, QuizOptions{QuestionCount: 4, QuestionSeconds: 15})

	session, err := service.StartSession(context.Background(), "u1", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID())
	assert.Equal(t, "any", session.Category())
	assert.Equal(t, domain.DifficultyMedium, session.Difficulty())
	assert.Equal(t, 15, session.Snapshot().RemainingSeconds)
	assert.Equal(t, 4, session.Snapshot().Total)

	found, ok := sessions.Get(session.ID())
	require.True(t, ok)
	assert.Same(t, session, found)

	service.EndSession(session.ID())
	_, ok = sessions.Get(session.ID())
	assert.False(t, ok)
}

func TestStartSessionRateLimitedStartsNothing(t *testing.T) {
	sessions := newFakeSessions()
	loader := NewQuestionLoader(&fakeSource{err: domain.ErrRateLimited}, nil)
	service := NewQuizService(sessions, loader, QuizOptions{})

	session, err := service.StartSession(context.Background(), "u1", "music", domain.DifficultyHard)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Nil(t, session)
	assert.Equal(t, 0, sessions.len())
}
