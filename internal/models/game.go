package models

import "time"

type Game struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ServerID   string     `gorm:"size:32;not null;index" json:"server_id"`
	ChannelID  string     `gorm:"size:32;not null;uniqueIndex" json:"channel_id"`
	OwnerID    string     `gorm:"size:32;not null" json:"owner_id"`
	Difficulty string     `gorm:"size:10" json:"difficulty,omitempty"`
	Category   int        `gorm:"default:0" json:"category,omitempty"`
	Token      string     `gorm:"size:64" json:"-"`
	Active     bool       `gorm:"not null;default:false" json:"active"`
	TimeLimit  int        `gorm:"not null;default:60" json:"time_limit"`
	Questions  []Question `gorm:"foreignKey:GameID" json:"questions,omitempty"`
	Players    []Player   `gorm:"foreignKey:GameID" json:"players,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
