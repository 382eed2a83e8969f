package services

import (
	"trivia-game-backend/internal/models"

	"gorm.io/gorm"
)

// ScoringService recomputes player scores from recorded answers. Scores are
// never incremented in place: recomputation keeps them consistent even after
// an answer is deleted or corrected.
type ScoringService struct {
	db *gorm.DB
}

func NewScoringService(db *gorm.DB) *ScoringService {
	return &ScoringService{db: db}
}

// Recompute sums the question points over every correct answer the player
// has recorded and persists the result.
func (s *ScoringService) Recompute(player *models.Player) error {
	var rows []struct {
		Correct    bool
		Difficulty string
	}
	err := s.db.Table("player_answers").
		Select("answers.correct, questions.difficulty").
		Joins("JOIN answers ON answers.id = player_answers.answer_id").
		Joins("JOIN questions ON questions.id = player_answers.question_id").
		Where("player_answers.player_id = ?", player.ID).
		Scan(&rows).Error
	if err != nil {
		return err
	}

	total := 0
	for _, row := range rows {
		if row.Correct {
			total += models.Points[row.Difficulty]
		}
	}

	if err := s.db.Model(&models.Player{}).
		Where("id = ?", player.ID).
		Update("score", total).Error; err != nil {
		return err
	}
	player.Score = total
	return nil
}

// Leaderboard returns the game's top players by score descending, ties
// broken by creation order.
func (s *ScoringService) Leaderboard(gameID uint, limit int) ([]models.Player, error) {
	var players []models.Player
	err := s.db.Where("game_id = ?", gameID).
		Order("score DESC").
		Order("id ASC").
		Limit(limit).
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}
