package main

import (
	"log"

	"trivia-game-backend/internal/bot"
	"trivia-game-backend/internal/config"
	"trivia-game-backend/internal/database"
	"trivia-game-backend/internal/discord"
	"trivia-game-backend/internal/handlers"
	"trivia-game-backend/internal/opentdb"
	"trivia-game-backend/internal/scheduler"
	"trivia-game-backend/internal/services"
	"trivia-game-backend/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()
	sched := scheduler.New()
	defer sched.Stop()

	source := opentdb.NewClient(cfg.OpenTDBURL)
	transport := discord.NewClient(cfg.DiscordToken)

	scoringService := services.NewScoringService(db)
	questionService := services.NewQuestionService(db, transport, source, sched, scoringService, hub)
	gameService := services.NewGameService(db, transport, source, questionService)
	gameService.SetTimeLimit(cfg.TimeLimit)
	answerService := services.NewAnswerService(db, scoringService, questionService)

	gameHandler := handlers.NewGameHandler(db, scoringService)
	wsHandler := handlers.NewWSHandler(hub)

	b := bot.New(gameService, answerService, transport, cfg.CommandPrefix, cfg.DiscordOwnerID)

	if cfg.DiscordToken != "" {
		gateway := discord.NewGateway(cfg.DiscordToken, b.HandleMessage)
		gateway.Start()
		defer gateway.Stop()
	} else {
		log.Println("DISCORD_TOKEN not set, gateway disabled")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/ws/games/:id", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		games := api.Group("/games")
		{
			games.GET("", gameHandler.ListGames)
			games.GET("/:id", gameHandler.GetGame)
			games.GET("/:id/leaderboard", gameHandler.GetLeaderboard)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
