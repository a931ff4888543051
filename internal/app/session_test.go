package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trivia-quiz-service/internal/domain"
)

func newTestSession(n, budget int) *Session {
	return NewSession(questionSet(n), SessionOptions{ID: "s1", UserID: "u1", QuestionSeconds: budget})
}

func assertIndexMatchesAnswers(t *testing.T, s *Session) {
	t.Helper()
	snap := s.Snapshot()
	assert.Equal(t, snap.CurrentIndex, len(snap.Answers), "answers must match current index")
	assert.LessOrEqual(t, snap.CurrentIndex, snap.Total)
}

func TestSessionMixedRun(t *testing.T) {
	s := newTestSession(3, 3)

	fb, err := s.Answer("right-1")
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assertIndexMatchesAnswers(t, s)
	require.True(t, s.Advance())
	assertIndexMatchesAnswers(t, s)

	var res TickResult
	for i := 0; i < 3; i++ {
		res = s.Tick()
		assertIndexMatchesAnswers(t, s)
	}
	assert.True(t, res.Advanced)
	assert.True(t, res.TimedOut)
	assert.Equal(t, 3, res.Remaining)

	fb, err = s.Answer("wrong-3-a")
	require.NoError(t, err)
	assert.False(t, fb.Correct)
	assert.Equal(t, "right-3", fb.CorrectAnswer)
	require.True(t, s.Advance())

	snap := s.Snapshot()
	assert.Equal(t, domain.PhaseCompleted, snap.Phase)
	assert.Len(t, snap.Answers, 3)
	assert.Equal(t, 1, snap.Score)
	assert.Nil(t, snap.Answers[1].SelectedAnswer)
	assert.Nil(t, snap.Question)
	assert.Equal(t, 1, Score(s.Answers()))
}

func TestSessionAdvanceWithoutAnswerIsNoop(t *testing.T) {
	s := newTestSession(2, 10)
	assert.False(t, s.Advance())
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.Empty(t, snap.Answers)
}

func TestSessionRejectsUnknownOption(t *testing.T) {
	s := newTestSession(2, 10)
	_, err := s.Answer("not-an-option")
	assert.ErrorIs(t, err, domain.ErrOptionNotFound)

	snap := s.Snapshot()
	assert.Nil(t, snap.Feedback)
	assert.Equal(t, 0, snap.Score)
	assert.False(t, s.Advance())
}

func TestSessionFirstAnswerWins(t *testing.T) {
	s := newTestSession(2, 10)
	_, err := s.Answer("right-1")
	require.NoError(t, err)

	fb, err := s.Answer("wrong-1-a")
	assert.ErrorIs(t, err, domain.ErrAlreadyAnswered)
	assert.Equal(t, "right-1", fb.Selected)

	require.True(t, s.Advance())
	answers := s.Answers()
	require.Len(t, answers, 1)
	assert.Equal(t, "right-1", *answers[0].SelectedAnswer)
}

func TestSessionTickAfterAnswerCommitsIt(t *testing.T) {
	s := newTestSession(2, 2)
	_, err := s.Answer("right-1")
	require.NoError(t, err)

	first := s.Tick()
	assert.False(t, first.Advanced)
	assert.Equal(t, 1, first.Remaining)

	second := s.Tick()
	assert.True(t, second.Advanced)
	assert.False(t, second.TimedOut)

	answers := s.Answers()
	require.Len(t, answers, 1)
	assert.True(t, answers[0].Correct())
	assertIndexMatchesAnswers(t, s)
}

func TestSessionCompletedIsTerminal(t *testing.T) {
	s := newTestSession(1, 1)
	s.Tick()
	require.Equal(t, domain.PhaseCompleted, s.Phase())

	_, err := s.Answer("right-1")
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
	assert.False(t, s.Advance())

	res := s.Tick()
	assert.False(t, res.Advanced)
	assert.Len(t, s.Answers(), 1)
}

func TestSessionReset(t *testing.T) {
	s := newTestSession(2, 5)
	before := s.Snapshot().Question.Options

	_, _ = s.Answer("right-1")
	s.Advance()
	s.Tick()
	s.Reset()

	snap := s.Snapshot()
	assert.Equal(t, domain.PhaseInProgress, snap.Phase)
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.Equal(t, 5, snap.RemainingSeconds)
	assert.Empty(t, snap.Answers)
	assert.Nil(t, snap.Feedback)
	assert.Equal(t, before, snap.Question.Options)
}

func TestSessionReplayAfterResetIsIdentical(t *testing.T) {
	s := newTestSession(3, 2)
	play := func() []domain.AnsweredQuestion {
		_, err := s.Answer("right-1")
		require.NoError(t, err)
		require.True(t, s.Advance())
		s.Tick()
		s.Tick()
		_, err = s.Answer("wrong-3-a")
		require.NoError(t, err)
		require.True(t, s.Advance())
		require.Equal(t, domain.PhaseCompleted, s.Phase())
		return s.Answers()
	}

	first := play()
	s.Reset()
	second := play()

	require.Len(t, first, 3)
	assert.Nil(t, first[1].SelectedAnswer)
	assert.Equal(t, first, second)
	assert.Equal(t, Score(first), Score(second))
}

func TestSessionEmptySetStartsCompleted(t *testing.T) {
	s := NewSession(domain.QuestionSet{}, SessionOptions{ID: "empty"})
	assert.Equal(t, domain.PhaseCompleted, s.Phase())
	assert.Equal(t, 0, Score(s.Answers()))
	_, err := s.Answer("x")
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
}

func TestSessionSnapshotShowsPendingScore(t *testing.T) {
	s := newTestSession(2, 10)
	_, err := s.Answer("right-1")
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Score)
	assert.Empty(t, snap.Answers)
	require.NotNil(t, snap.Feedback)
	assert.True(t, snap.Feedback.Correct)
	require.NotNil(t, snap.Question)
	assert.Equal(t, "Question 1?", snap.Question.Prompt)
}

func TestSessionDefaultBudget(t *testing.T) {
	s := newTestSession(1, 0)
	assert.Equal(t, DefaultQuestionSeconds, s.Snapshot().RemainingSeconds)
}
