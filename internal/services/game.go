package services

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"trivia-game-backend/internal/chat"
	"trivia-game-backend/internal/models"
	"trivia-game-backend/internal/ws"

	"gorm.io/gorm"
)

var (
	// ErrActiveGameExists signals that a server already has a live game.
	ErrActiveGameExists = errors.New("an active game already exists for this server")
	// ErrGameNotFound signals that no game exists in the required state for
	// the targeted channel.
	ErrGameNotFound = errors.New("no game exists for this channel")
)

// GameService owns the game lifecycle: created (inactive) -> active -> ended.
type GameService struct {
	db        *gorm.DB
	transport chat.Transport
	source    QuestionSource
	questions *QuestionService
	timeLimit int

	// Serializes create attempts so two concurrent "new" commands cannot
	// both pass the one-active-game-per-server check.
	mu sync.Mutex
}

// DefaultTimeLimit is how long each question stays open, in seconds.
const DefaultTimeLimit = 60

func NewGameService(db *gorm.DB, transport chat.Transport, source QuestionSource, questions *QuestionService) *GameService {
	return &GameService{
		db:        db,
		transport: transport,
		source:    source,
		questions: questions,
		timeLimit: DefaultTimeLimit,
	}
}

// SetTimeLimit overrides the per-question time limit applied to new games.
func (s *GameService) SetTimeLimit(seconds int) {
	if seconds > 0 {
		s.timeLimit = seconds
	}
}

// Create provisions a channel and a question-source session, then persists a
// new inactive game. When the server already has an active game it is
// returned alongside ErrActiveGameExists so the caller can mention it.
func (s *GameService) Create(serverID, ownerID string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing models.Game
	if err := s.db.Where("server_id = ? AND active = ?", serverID, true).
		First(&existing).Error; err == nil {
		return &existing, ErrActiveGameExists
	}

	channelID, err := s.transport.CreateChannel(serverID, "trivia")
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}

	token, err := s.source.RequestToken()
	if err != nil {
		if derr := s.transport.DeleteChannel(channelID); derr != nil {
			log.Printf("game: cleanup channel %s: %v", channelID, derr)
		}
		return nil, fmt.Errorf("acquire session: %w", err)
	}

	game := models.Game{
		ServerID:  serverID,
		ChannelID: channelID,
		OwnerID:   ownerID,
		Token:     token,
		Active:    false,
		TimeLimit: s.timeLimit,
	}
	if err := s.db.Create(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

// Start flips an inactive game active and posts its first question. A game
// that is already active, or was never created, cannot be started.
func (s *GameService) Start(channelID string) error {
	var game models.Game
	if err := s.db.Where("channel_id = ? AND active = ?", channelID, false).
		First(&game).Error; err != nil {
		return ErrGameNotFound
	}

	if err := s.db.Model(&game).Update("active", true).Error; err != nil {
		return err
	}
	return s.questions.Advance(game.ID)
}

// End deactivates the game, releases its question-source session and deletes
// its channel. Terminal: the game cannot be restarted. A question timer still
// pending for this game will fire and no-op its advance against the now
// inactive game.
func (s *GameService) End(channelID string) error {
	var game models.Game
	if err := s.db.Where("channel_id = ?", channelID).First(&game).Error; err != nil {
		return ErrGameNotFound
	}

	if err := s.db.Model(&game).Update("active", false).Error; err != nil {
		return err
	}

	if game.Token != "" {
		if err := s.source.ResetToken(game.Token); err != nil {
			log.Printf("game: release session for game %d: %v", game.ID, err)
		}
	}

	s.questions.hub.Broadcast(game.ID, ws.Event{Type: ws.EventGameEnded, Data: map[string]interface{}{
		"game_id": game.ID,
	}})

	if err := s.transport.DeleteChannel(game.ChannelID); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

// ActiveGame returns the server's single active game, or ErrGameNotFound.
func (s *GameService) ActiveGame(serverID string) (*models.Game, error) {
	var game models.Game
	if err := s.db.Where("server_id = ? AND active = ?", serverID, true).
		First(&game).Error; err != nil {
		return nil, ErrGameNotFound
	}
	return &game, nil
}

// ByChannel looks a game up by channel in the given activity state.
func (s *GameService) ByChannel(channelID string, active bool) (*models.Game, error) {
	var game models.Game
	if err := s.db.Where("channel_id = ? AND active = ?", channelID, active).
		First(&game).Error; err != nil {
		return nil, ErrGameNotFound
	}
	return &game, nil
}
