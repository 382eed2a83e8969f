package models

import "time"

const (
	QuestionTypeBoolean  = "boolean"
	QuestionTypeMultiple = "multiple"
)

// Points awarded per difficulty. Fetching validates difficulty against this
// table, so an unknown difficulty never reaches the scoring path.
var Points = map[string]int{
	"easy":   1,
	"medium": 2,
	"hard":   3,
}

type Question struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	GameID        uint           `gorm:"not null;index" json:"game_id"`
	Text          string         `gorm:"type:text;not null" json:"text"`
	Difficulty    string         `gorm:"size:10;not null" json:"difficulty"`
	Category      string         `gorm:"size:100" json:"category"`
	Type          string         `gorm:"size:10;not null" json:"type"`
	MessageID     string         `gorm:"size:64;not null;default:''" json:"message_id,omitempty"`
	Expires       *time.Time     `json:"expires,omitempty"`
	Answers       []Answer       `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
	PlayerAnswers []PlayerAnswer `gorm:"foreignKey:QuestionID" json:"-"`
}

func (q *Question) Points() int {
	return Points[q.Difficulty]
}

// Posted reports whether the question has been sent to the channel.
// MessageID doubles as the post claim, so a claimed question counts as posted.
func (q *Question) Posted() bool {
	return q.MessageID != ""
}

// Expired is false until an expiry is assigned by posting.
func (q *Question) Expired() bool {
	if q.Expires == nil {
		return false
	}
	return !time.Now().Before(*q.Expires)
}

// Answer returns the loaded answer matching the identifier, or nil.
func (q *Question) Answer(identifier string) *Answer {
	for i := range q.Answers {
		if q.Answers[i].Identifier == identifier {
			return &q.Answers[i]
		}
	}
	return nil
}

// CorrectAnswer returns the loaded answer marked correct, or nil.
func (q *Question) CorrectAnswer() *Answer {
	for i := range q.Answers {
		if q.Answers[i].Correct {
			return &q.Answers[i]
		}
	}
	return nil
}
