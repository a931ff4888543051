package app

import "trivia-quiz-service/internal/domain"

// Score counts answers whose selection equals the correct answer.
// A nil selection never matches.
func Score(answers []domain.AnsweredQuestion) int {
	score := 0
	for _, a := range answers {
		if a.Correct() {
			score++
		}
	}
	return score
}
