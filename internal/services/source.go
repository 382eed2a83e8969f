package services

import "trivia-game-backend/internal/opentdb"

// QuestionSource is the trivia question provider consumed by the game and
// question services. opentdb.Client is the production implementation.
type QuestionSource interface {
	RequestToken() (string, error)
	ResetToken(token string) error
	Fetch(token string, amount int, difficulty string, category int) ([]opentdb.TriviaQuestion, error)
}
