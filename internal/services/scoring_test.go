package services

import (
	"fmt"
	"testing"

	"trivia-game-backend/internal/models"
)

func TestRecomputeSumsCorrectAnswers(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	easy := createQuestion(t, env.db, game, "easy")
	medium := createQuestion(t, env.db, game, "medium")
	hard := createQuestion(t, env.db, game, "hard")

	env.answers.Submit(game, "user-1", "a", easy)
	env.answers.Submit(game, "user-1", "a", medium)
	env.answers.Submit(game, "user-1", "b", hard)

	var player models.Player
	env.db.Where("game_id = ? AND discord_id = ?", game.ID, "user-1").First(&player)
	if player.Score != 3 {
		t.Errorf("score = %d, want 3 (1 easy + 2 medium, hard answered wrong)", player.Score)
	}
}

func TestRecomputeNoAnswers(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	player := models.Player{GameID: game.ID, DiscordID: "user-1", Score: 42}
	if err := env.db.Create(&player).Error; err != nil {
		t.Fatal(err)
	}

	if err := env.scoring.Recompute(&player); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if player.Score != 0 {
		t.Errorf("score = %d, want 0", player.Score)
	}
}

func TestLeaderboardOrderAndLimit(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	scores := []int{5, 3, 3, 9, 0, 1, 7, 2, 4, 6, 8, 3}
	for i, score := range scores {
		p := models.Player{
			GameID:    game.ID,
			DiscordID: fmt.Sprintf("user-%d", i),
			Score:     score,
		}
		if err := env.db.Create(&p).Error; err != nil {
			t.Fatal(err)
		}
	}

	players, err := env.scoring.Leaderboard(game.ID, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(players) != 10 {
		t.Fatalf("leaderboard has %d entries, want 10", len(players))
	}

	for i := 1; i < len(players); i++ {
		if players[i].Score > players[i-1].Score {
			t.Errorf("leaderboard not sorted at %d: %d > %d", i, players[i].Score, players[i-1].Score)
		}
		if players[i].Score == players[i-1].Score && players[i].ID < players[i-1].ID {
			t.Errorf("tie at %d not broken by creation order", i)
		}
	}
	if players[0].Score != 9 {
		t.Errorf("top score = %d, want 9", players[0].Score)
	}
}

func TestLeaderboardScopedToGame(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	other := createGame(t, env.db, false)
	env.db.Create(&models.Player{GameID: game.ID, DiscordID: "user-1", Score: 1})
	env.db.Create(&models.Player{GameID: other.ID, DiscordID: "user-2", Score: 99})

	players, err := env.scoring.Leaderboard(game.ID, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(players) != 1 || players[0].DiscordID != "user-1" {
		t.Errorf("leaderboard leaked across games: %+v", players)
	}
}
