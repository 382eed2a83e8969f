package models

import "time"

// PlayerAnswer links one player's single submission to a question's chosen
// answer. The unique index makes the first accepted submission final:
// concurrent duplicates fail the insert instead of overwriting.
type PlayerAnswer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlayerID   uint      `gorm:"not null;uniqueIndex:idx_player_answer_unique" json:"player_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_player_answer_unique" json:"question_id"`
	AnswerID   uint      `gorm:"not null" json:"answer_id"`
	CreatedAt  time.Time `json:"created_at"`
}
