package models

type Answer struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"size:500;not null" json:"text"`
	Correct    bool   `gorm:"not null;default:false" json:"correct"`
	Identifier string `gorm:"size:1;not null" json:"identifier"`
}
