package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the question difficulty requested from the source and stored on attempts.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"

	// DefaultDifficulty is used when a question request leaves difficulty empty.
	DefaultDifficulty = DifficultyMedium
)

// ParseDifficulty accepts easy, medium or hard (case-insensitive).
// An empty string is allowed; loaders replace it with DefaultDifficulty.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	switch d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", raw)
}

// Valid reports whether d is one of the three concrete difficulties.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Phase is the lifecycle phase of a live quiz session.
type Phase int

const (
	PhaseInProgress Phase = iota
	PhaseCompleted
)

func (p Phase) String() string {
	if p == PhaseCompleted {
		return "completed"
	}
	return "inProgress"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Question models a multiple-choice question with exactly one correct option.
// Options are shuffled once when the question set is loaded.
type Question struct {
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Validate checks the option invariants: at least two unique options,
// one of which is the correct answer.
func (q Question) Validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("question has no prompt")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question %q has %d options", q.Prompt, len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	hasCorrect := false
	for _, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("question %q has an empty option", q.Prompt)
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("question %q has duplicate option %q", q.Prompt, opt)
		}
		seen[opt] = struct{}{}
		if opt == q.CorrectAnswer {
			hasCorrect = true
		}
	}
	if !hasCorrect {
		return fmt.Errorf("question %q: correct answer is not an option", q.Prompt)
	}
	return nil
}

// HasOption reports whether answer is one of the question's options.
func (q Question) HasOption(answer string) bool {
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}

// QuestionSet is the ordered batch of questions loaded for one session.
type QuestionSet struct {
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Questions  []Question `json:"questions"`
}

// QuestionRequest identifies what to ask the question source for.
type QuestionRequest struct {
	Category   string
	Difficulty Difficulty
	Count      int
}

// SourceQuestion is one item as returned by the question source, already entity-decoded.
type SourceQuestion struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// AnsweredQuestion is one recorded answer. SelectedAnswer is nil when the
// question timed out without a selection.
type AnsweredQuestion struct {
	Prompt         string  `json:"question"`
	SelectedAnswer *string `json:"selectedAnswer"`
	CorrectAnswer  string  `json:"correctAnswer"`
}

// Correct reports whether a selection was made and matches the correct answer.
func (a AnsweredQuestion) Correct() bool {
	return a.SelectedAnswer != nil && *a.SelectedAnswer == a.CorrectAnswer
}

// Validate rejects records missing a prompt or a correct answer.
func (a AnsweredQuestion) Validate() error {
	if a.Prompt == "" {
		return fmt.Errorf("answered question has no prompt")
	}
	if a.CorrectAnswer == "" {
		return fmt.Errorf("answered question %q has no correct answer", a.Prompt)
	}
	return nil
}

// Attempt is one completed quiz session as persisted. It is never mutated after creation.
type Attempt struct {
	ID         string             `json:"id"`
	UserID     string             `json:"userId"`
	Category   string             `json:"category"`
	Difficulty Difficulty         `json:"difficulty"`
	Score      int                `json:"score"`
	Questions  []AnsweredQuestion `json:"questions"`
	Timestamp  time.Time          `json:"date"`
}

// Validate enforces the persisted record shape.
func (a Attempt) Validate() error {
	if a.UserID == "" {
		return fmt.Errorf("attempt has no user")
	}
	if a.Category == "" {
		return fmt.Errorf("attempt has no category")
	}
	if !a.Difficulty.Valid() {
		return fmt.Errorf("attempt has invalid difficulty %q", a.Difficulty)
	}
	if a.Score < 0 {
		return fmt.Errorf("attempt has negative score %d", a.Score)
	}
	if len(a.Questions) == 0 {
		return fmt.Errorf("attempt has no questions")
	}
	for _, q := range a.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// User is an account. The quiz core only reads ID and Username.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is what the identity collaborator resolves a bearer credential to.
type Identity struct {
	UserID   string
	Username string
	Valid    bool
	Expired  bool
}

// SubmissionResult is returned once an attempt has been durably stored.
type SubmissionResult struct {
	AttemptID string    `json:"attemptId"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"date"`
}

// HistoryEntry is an attempt prepared for display.
type HistoryEntry struct {
	Attempt
	CategoryName string `json:"categoryName"`
}

// ScoreSummary aggregates a user's attempts.
type ScoreSummary struct {
	TotalScore int `json:"totalScore"`
	Attempts   int `json:"attempts"`
}

// Feedback is the immediate result shown after answering a question.
type Feedback struct {
	Selected      string `json:"selected"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
}

// QuestionView is a question as shown to the player, without its answer.
type QuestionView struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
}

// SessionSnapshot is a read-only copy of a live session.
type SessionSnapshot struct {
	ID               string             `json:"id"`
	Category         string             `json:"category"`
	Difficulty       Difficulty         `json:"difficulty"`
	Phase            Phase              `json:"phase"`
	CurrentIndex     int                `json:"currentIndex"`
	Total            int                `json:"total"`
	RemainingSeconds int                `json:"remainingSeconds"`
	Question         *QuestionView      `json:"question,omitempty"`
	Answers          []AnsweredQuestion `json:"answers"`
	Feedback         *Feedback          `json:"feedback,omitempty"`
	Score            int                `json:"score"`
}

// CloneAnswers deep-copies answers, including the selected answer strings.
func CloneAnswers(in []AnsweredQuestion) []AnsweredQuestion {
	out := make([]AnsweredQuestion, len(in))
	for i, a := range in {
		out[i] = a
		if a.SelectedAnswer != nil {
			sel := *a.SelectedAnswer
			out[i].SelectedAnswer = &sel
		}
	}
	return out
}
