package app

import (
	"sync"

	"trivia-quiz-service/internal/domain"
)

// DefaultQuestionSeconds is the per-question time budget.
const DefaultQuestionSeconds = 10

// TickResult describes what a single timer tick did to the session.
type TickResult struct {
	Remaining int
	// Advanced is set when the countdown hit zero and the session moved on.
	Advanced bool
	// TimedOut is set when the question was left unanswered.
	TimedOut bool
	Phase    domain.Phase
}

// Session is the live state of one player working through a QuestionSet.
// All transitions take the session lock, so they never interleave even when
// the timer goroutine and the player's input race each other.
type Session struct {
	id         string
	userID     string
	category   string
	difficulty domain.Difficulty
	budget     int

	mu        sync.Mutex
	questions []domain.Question
	current   int
	answers   []domain.AnsweredQuestion
	pending   *domain.AnsweredQuestion
	feedback  *domain.Feedback
	remaining int
	phase     domain.Phase
}

// SessionOptions carries the identifying fields of a new session.
type SessionOptions struct {
	ID              string
	UserID          string
	QuestionSeconds int
}

// NewSession starts a session at the first question. An empty set starts out completed.
func NewSession(set domain.QuestionSet, opts SessionOptions) *Session {
	budget := opts.QuestionSeconds
	if budget <= 0 {
		budget = DefaultQuestionSeconds
	}
	s := &Session{
		id:         opts.ID,
		userID:     opts.UserID,
		category:   set.Category,
		difficulty: set.Difficulty,
		budget:     budget,
		questions:  set.Questions,
		answers:    make([]domain.AnsweredQuestion, 0, len(set.Questions)),
		remaining:  budget,
	}
	if len(s.questions) == 0 {
		s.phase = domain.PhaseCompleted
	}
	return s
}

func (s *Session) ID() string                    { return s.id }
func (s *Session) UserID() string                { return s.userID }
func (s *Session) Category() string              { return s.category }
func (s *Session) Difficulty() domain.Difficulty { return s.difficulty }

// Answer records the player's selection for the current question. The first
// answer wins; the record is committed to the answer list when the session advances.
func (s *Session) Answer(selection string) (domain.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseCompleted {
		return domain.Feedback{}, domain.ErrSessionCompleted
	}
	if s.pending != nil {
		return *s.feedback, domain.ErrAlreadyAnswered
	}
	q := s.questions[s.current]
	if !q.HasOption(selection) {
		return domain.Feedback{}, domain.ErrOptionNotFound
	}

	selected := selection
	s.pending = &domain.AnsweredQuestion{
		Prompt:         q.Prompt,
		SelectedAnswer: &selected,
		CorrectAnswer:  q.CorrectAnswer,
	}
	s.feedback = &domain.Feedback{
		Selected:      selection,
		Correct:       selection == q.CorrectAnswer,
		CorrectAnswer: q.CorrectAnswer,
	}
	return *s.feedback, nil
}

// Advance moves past an answered question. It reports false and changes
// nothing when the current question has no answer yet or the session is over.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseCompleted || s.pending == nil {
		return false
	}
	s.advanceLocked()
	return true
}

// Tick counts the current question's timer down by one second. At zero the
// question is committed (with no selection if unanswered) and the session advances.
func (s *Session) Tick() TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseCompleted {
		return TickResult{Remaining: s.remaining, Phase: s.phase}
	}
	s.remaining--
	if s.remaining > 0 {
		return TickResult{Remaining: s.remaining, Phase: s.phase}
	}

	timedOut := s.pending == nil
	if timedOut {
		q := s.questions[s.current]
		s.pending = &domain.AnsweredQuestion{
			Prompt:        q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
		}
	}
	s.advanceLocked()
	return TickResult{Remaining: s.remaining, Advanced: true, TimedOut: timedOut, Phase: s.phase}
}

func (s *Session) advanceLocked() {
	s.answers = append(s.answers, *s.pending)
	s.pending = nil
	s.feedback = nil
	s.current++
	s.remaining = s.budget
	if s.current == len(s.questions) {
		s.phase = domain.PhaseCompleted
	}
}

// Reset replays the same questions in the same option order from the start.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = 0
	s.answers = make([]domain.AnsweredQuestion, 0, len(s.questions))
	s.pending = nil
	s.feedback = nil
	s.remaining = s.budget
	s.phase = domain.PhaseInProgress
	if len(s.questions) == 0 {
		s.phase = domain.PhaseCompleted
	}
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Answers returns a copy of the committed answers.
func (s *Session) Answers() []domain.AnsweredQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneAnswers(s.answers)
}

// Snapshot returns a consistent copy of the session for display.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.SessionSnapshot{
		ID:               s.id,
		Category:         s.category,
		Difficulty:       s.difficulty,
		Phase:            s.phase,
		CurrentIndex:     s.current,
		Total:            len(s.questions),
		RemainingSeconds: s.remaining,
		Answers:          domain.CloneAnswers(s.answers),
	}
	if s.phase == domain.PhaseInProgress {
		q := s.questions[s.current]
		snap.Question = &domain.QuestionView{
			Index:   s.current,
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
		}
	}
	if s.feedback != nil {
		fb := *s.feedback
		snap.Feedback = &fb
	}

	scored := snap.Answers
	if s.pending != nil {
		scored = append(scored, *s.pending)
	}
	snap.Score = Score(scored)
	return snap
}
