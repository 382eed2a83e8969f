package services

import (
	"sync"
	"testing"

	"trivia-game-backend/internal/models"
)

func TestSubmitCorrect(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	q := createQuestion(t, env.db, game, "hard")

	out, err := env.answers.Submit(game, "user-1", "a", q)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out != OutcomeCorrect {
		t.Errorf("outcome = %v, want OutcomeCorrect", out)
	}

	var player models.Player
	if err := env.db.Where("game_id = ? AND discord_id = ?", game.ID, "user-1").
		First(&player).Error; err != nil {
		t.Fatalf("player not created: %v", err)
	}
	if player.Score != 3 {
		t.Errorf("score = %d, want 3 for a hard question", player.Score)
	}
}

func TestSubmitIncorrect(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	q := createQuestion(t, env.db, game, "easy")

	out, err := env.answers.Submit(game, "user-1", "c", q)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out != OutcomeIncorrect {
		t.Errorf("outcome = %v, want OutcomeIncorrect", out)
	}

	var player models.Player
	env.db.Where("game_id = ? AND discord_id = ?", game.ID, "user-1").First(&player)
	if player.Score != 0 {
		t.Errorf("score = %d, want 0", player.Score)
	}
}

func TestSubmitUnmatchedTextIgnored(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	q := createQuestion(t, env.db, game, "easy")

	for _, text := range []string{"hello there", "A", "aa", "e", ""} {
		out, err := env.answers.Submit(game, "user-1", text, q)
		if err != nil {
			t.Fatalf("Submit(%q): %v", text, err)
		}
		if out != OutcomeIgnored {
			t.Errorf("Submit(%q) = %v, want OutcomeIgnored", text, out)
		}
	}

	var count int64
	env.db.Model(&models.PlayerAnswer{}).Count(&count)
	if count != 0 {
		t.Errorf("%d answers recorded, want 0", count)
	}

	// Chatting still materializes the player.
	var player models.Player
	if err := env.db.Where("game_id = ? AND discord_id = ?", game.ID, "user-1").
		First(&player).Error; err != nil {
		t.Error("player should be created lazily on first message")
	}
}

func TestSubmitDuplicateIgnored(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	q := createQuestion(t, env.db, game, "medium")

	if out, _ := env.answers.Submit(game, "user-1", "b", q); out != OutcomeIncorrect {
		t.Fatalf("first submit = %v", out)
	}
	if out, _ := env.answers.Submit(game, "user-1", "a", q); out != OutcomeIgnored {
		t.Errorf("second submit = %v, want OutcomeIgnored", out)
	}

	var records []models.PlayerAnswer
	env.db.Where("question_id = ?", q.ID).Find(&records)
	if len(records) != 1 {
		t.Fatalf("%d answers recorded, want 1", len(records))
	}
	if records[0].AnswerID != q.Answer("b").ID {
		t.Error("first submission must not be overwritten")
	}

	var player models.Player
	env.db.Where("game_id = ? AND discord_id = ?", game.ID, "user-1").First(&player)
	if player.Score != 0 {
		t.Errorf("score = %d, want 0 (second correct attempt rejected)", player.Score)
	}
}

func TestSubmitConcurrentSamePlayer(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	q := createQuestion(t, env.db, game, "easy")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.answers.Submit(game, "user-1", "a", q); err != nil {
				t.Errorf("Submit: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int64
	env.db.Model(&models.PlayerAnswer{}).Where("question_id = ?", q.ID).Count(&count)
	if count != 1 {
		t.Errorf("%d answers recorded, want 1 (first writer wins)", count)
	}
}

func TestSubmitTwoPlayersSameAnswer(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	q := createQuestion(t, env.db, game, "medium")

	var wg sync.WaitGroup
	for _, user := range []string{"user-1", "user-2"} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			out, err := env.answers.Submit(game, u, "a", q)
			if err != nil {
				t.Errorf("Submit(%s): %v", u, err)
			}
			if out != OutcomeCorrect {
				t.Errorf("Submit(%s) = %v, want OutcomeCorrect", u, out)
			}
		}(user)
	}
	wg.Wait()

	var players []models.Player
	env.db.Where("game_id = ?", game.ID).Find(&players)
	if len(players) != 2 {
		t.Fatalf("%d players, want 2", len(players))
	}
	for _, p := range players {
		if p.Score != 2 {
			t.Errorf("player %s score = %d, want 2", p.DiscordID, p.Score)
		}
	}
}

func TestHandleMessageNoGame(t *testing.T) {
	env := newTestEnv(t)

	// Must not panic or create anything.
	env.answers.HandleMessage("no-such-channel", "user-1", "a")

	var count int64
	env.db.Model(&models.Player{}).Count(&count)
	if count != 0 {
		t.Errorf("%d players created, want 0", count)
	}
}

func TestHandleMessageInactiveGame(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, false)
	q := createQuestion(t, env.db, game, "easy")

	env.answers.HandleMessage(game.ChannelID, "user-1", "a")

	var count int64
	env.db.Model(&models.PlayerAnswer{}).Where("question_id = ?", q.ID).Count(&count)
	if count != 0 {
		t.Errorf("%d answers recorded against an inactive game, want 0", count)
	}
}

func TestHandleMessageRecordsAnswer(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	q := createQuestion(t, env.db, game, "easy")
	if err := env.questions.Post(game, q); err != nil {
		t.Fatalf("Post: %v", err)
	}

	env.answers.HandleMessage(game.ChannelID, "user-1", "a")

	var count int64
	env.db.Model(&models.PlayerAnswer{}).Where("question_id = ?", q.ID).Count(&count)
	if count != 1 {
		t.Errorf("%d answers recorded, want 1", count)
	}
}

func TestHandleMessageUnpostedQuestion(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	q := createQuestion(t, env.db, game, "easy")

	// Buffered but not yet posted: not eligible for answers.
	env.answers.HandleMessage(game.ChannelID, "user-1", "a")

	var count int64
	env.db.Model(&models.PlayerAnswer{}).Where("question_id = ?", q.ID).Count(&count)
	if count != 0 {
		t.Errorf("%d answers recorded against an unposted question, want 0", count)
	}
}

func TestScoreRecomputesAfterDeletion(t *testing.T) {
	env := newTestEnv(t)

	game := createGame(t, env.db, true)
	q1 := createQuestion(t, env.db, game, "hard")
	q2 := createQuestion(t, env.db, game, "easy")

	env.answers.Submit(game, "user-1", "a", q1)
	env.answers.Submit(game, "user-1", "a", q2)

	var player models.Player
	env.db.Where("game_id = ? AND discord_id = ?", game.ID, "user-1").First(&player)
	if player.Score != 4 {
		t.Fatalf("score = %d, want 4", player.Score)
	}

	if err := env.db.Where("player_id = ? AND question_id = ?", player.ID, q1.ID).
		Delete(&models.PlayerAnswer{}).Error; err != nil {
		t.Fatal(err)
	}
	if err := env.scoring.Recompute(&player); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if player.Score != 1 {
		t.Errorf("score after deletion = %d, want 1", player.Score)
	}
}
