package models

import "time"

type Player struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	GameID        uint           `gorm:"not null;uniqueIndex:idx_game_player" json:"game_id"`
	DiscordID     string         `gorm:"size:32;not null;uniqueIndex:idx_game_player" json:"discord_id"`
	Score         int            `gorm:"not null;default:0" json:"score"`
	PlayerAnswers []PlayerAnswer `gorm:"foreignKey:PlayerID" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
}
