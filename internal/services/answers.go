package services

import (
	"errors"
	"log"

	"trivia-game-backend/internal/models"

	"gorm.io/gorm"
)

// Outcome classifies one answer submission. Free-form chat that does not
// match an option is ignored, never treated as invalid input.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeCorrect
	OutcomeIncorrect
)

// AnswerService records player answers: one per (player, question), first
// accepted submission final.
type AnswerService struct {
	db        *gorm.DB
	scoring   *ScoringService
	questions *QuestionService
}

func NewAnswerService(db *gorm.DB, scoring *ScoringService, questions *QuestionService) *AnswerService {
	return &AnswerService{db: db, scoring: scoring, questions: questions}
}

// Submit matches text against the question's option identifiers
// (case-sensitive, exact). The player is created lazily on first contact.
// A losing duplicate, concurrent or not, is OutcomeIgnored: the unique index
// on (player, question) makes the first writer win.
func (s *AnswerService) Submit(game *models.Game, userID, text string, q *models.Question) (Outcome, error) {
	var player models.Player
	if err := s.db.Where(models.Player{GameID: game.ID, DiscordID: userID}).
		FirstOrCreate(&player).Error; err != nil {
		// Two messages from a new player can race the create; the loser
		// rereads the row the winner inserted.
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return OutcomeIgnored, err
		}
		if err := s.db.Where("game_id = ? AND discord_id = ?", game.ID, userID).
			First(&player).Error; err != nil {
			return OutcomeIgnored, err
		}
	}

	answer := q.Answer(text)
	if answer == nil {
		return OutcomeIgnored, nil
	}

	record := models.PlayerAnswer{
		PlayerID:   player.ID,
		QuestionID: q.ID,
		AnswerID:   answer.ID,
	}
	if err := s.db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return OutcomeIgnored, nil
		}
		return OutcomeIgnored, err
	}

	if err := s.scoring.Recompute(&player); err != nil {
		return OutcomeIgnored, err
	}

	if answer.Correct {
		return OutcomeCorrect, nil
	}
	return OutcomeIncorrect, nil
}

// HandleMessage routes one inbound chat message against the channel's active
// game and its current question. Nothing is observable to the sender; result
// delivery happens via the results message. Errors are logged, never
// propagated: no caller waits on this path.
func (s *AnswerService) HandleMessage(channelID, userID, text string) {
	var game models.Game
	if err := s.db.Where("channel_id = ? AND active = ?", channelID, true).
		First(&game).Error; err != nil {
		return
	}

	q, err := s.questions.CurrentQuestion(&game)
	if err != nil {
		log.Printf("answers: current question for game %d: %v", game.ID, err)
		return
	}
	if q == nil || !q.Posted() {
		return
	}

	if _, err := s.Submit(&game, userID, text, q); err != nil {
		log.Printf("answers: submit for game %d: %v", game.ID, err)
	}
}
