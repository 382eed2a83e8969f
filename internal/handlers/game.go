package handlers

import (
	"net/http"
	"strconv"

	"trivia-game-backend/internal/models"
	"trivia-game-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GameHandler exposes the read-only operational surface: game listings and
// the live leaderboard. Lifecycle changes happen through chat commands only.
type GameHandler struct {
	db      *gorm.DB
	scoring *services.ScoringService
}

func NewGameHandler(db *gorm.DB, scoring *services.ScoringService) *GameHandler {
	return &GameHandler{db: db, scoring: scoring}
}

type GameSummary struct {
	ID          uint   `json:"id"`
	ServerID    string `json:"server_id"`
	ChannelID   string `json:"channel_id"`
	Active      bool   `json:"active"`
	PlayerCount int    `json:"player_count"`
}

func (h *GameHandler) ListGames(c *gin.Context) {
	var games []models.Game
	if err := h.db.Order("created_at DESC").Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	result := make([]GameSummary, len(games))
	for i, g := range games {
		var playerCount int64
		h.db.Model(&models.Player{}).Where("game_id = ?", g.ID).Count(&playerCount)

		result[i] = GameSummary{
			ID:          g.ID,
			ServerID:    g.ServerID,
			ChannelID:   g.ChannelID,
			Active:      g.Active,
			PlayerCount: int(playerCount),
		}
	}

	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) GetGame(c *gin.Context) {
	gameID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
		return
	}

	var game models.Game
	if err := h.db.Preload("Questions").Preload("Players").
		First(&game, uint(gameID)).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "game not found"})
		return
	}

	c.JSON(http.StatusOK, game)
}

type LeaderboardEntry struct {
	Position  int    `json:"position"`
	DiscordID string `json:"discord_id"`
	Score     int    `json:"score"`
}

func (h *GameHandler) GetLeaderboard(c *gin.Context) {
	gameID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
		return
	}

	var game models.Game
	if err := h.db.First(&game, uint(gameID)).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "game not found"})
		return
	}

	players, err := h.scoring.Leaderboard(game.ID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	entries := make([]LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = LeaderboardEntry{
			Position:  i + 1,
			DiscordID: p.DiscordID,
			Score:     p.Score,
		}
	}

	c.JSON(http.StatusOK, entries)
}
