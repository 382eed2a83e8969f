package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"trivia-game-backend/internal/chat"
	"trivia-game-backend/internal/models"
	"trivia-game-backend/internal/opentdb"
	"trivia-game-backend/internal/scheduler"
	"trivia-game-backend/internal/ws"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errTransportDown = errors.New("transport down")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	// A single connection keeps every goroutine on the same in-memory
	// database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Game{},
		&models.Question{},
		&models.Answer{},
		&models.Player{},
		&models.PlayerAnswer{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

type sentMessage struct {
	ChannelID string
	Content   string
	Embed     *chat.Embed
}

type fakeTransport struct {
	mu       sync.Mutex
	nextID   int
	channels []string
	deleted  []string
	messages []sentMessage
	sendErr  error
}

func (f *fakeTransport) CreateChannel(serverID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("chan-%d", f.nextID)
	f.channels = append(f.channels, id)
	return id, nil
}

func (f *fakeTransport) DeleteChannel(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakeTransport) SendEmbed(channelID, content string, embed *chat.Embed) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.nextID++
	f.messages = append(f.messages, sentMessage{ChannelID: channelID, Content: content, Embed: embed})
	return fmt.Sprintf("msg-%d", f.nextID), nil
}

func (f *fakeTransport) DisplayName(serverID, userID string) (string, error) {
	return "name-" + userID, nil
}

func (f *fakeTransport) sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

type fakeSource struct {
	mu        sync.Mutex
	tokens    int
	resets    []string
	questions []opentdb.TriviaQuestion
	fetchErr  error
}

func (f *fakeSource) RequestToken() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens++
	return fmt.Sprintf("token-%d", f.tokens), nil
}

func (f *fakeSource) ResetToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, token)
	return nil
}

func (f *fakeSource) Fetch(token string, amount int, difficulty string, category int) ([]opentdb.TriviaQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.questions, nil
}

type testEnv struct {
	db        *gorm.DB
	transport *fakeTransport
	source    *fakeSource
	sched     *scheduler.Scheduler
	scoring   *ScoringService
	questions *QuestionService
	games     *GameService
	answers   *AnswerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	transport := &fakeTransport{}
	source := &fakeSource{questions: []opentdb.TriviaQuestion{
		multipleQuestion("easy", "What is 2+2?"),
		booleanQuestion("True", "Is water wet?"),
	}}
	sched := scheduler.New()
	t.Cleanup(sched.Stop)

	scoring := NewScoringService(db)
	questions := NewQuestionService(db, transport, source, sched, scoring, ws.NewHub())
	games := NewGameService(db, transport, source, questions)
	answers := NewAnswerService(db, scoring, questions)

	return &testEnv{
		db:        db,
		transport: transport,
		source:    source,
		sched:     sched,
		scoring:   scoring,
		questions: questions,
		games:     games,
		answers:   answers,
	}
}

func multipleQuestion(difficulty, text string) opentdb.TriviaQuestion {
	return opentdb.TriviaQuestion{
		Category:         "General Knowledge",
		Type:             models.QuestionTypeMultiple,
		Difficulty:       difficulty,
		Question:         text,
		CorrectAnswer:    "Four",
		IncorrectAnswers: []string{"Three", "Five", "Six"},
	}
}

func booleanQuestion(correct, text string) opentdb.TriviaQuestion {
	incorrect := "False"
	if correct == "False" {
		incorrect = "True"
	}
	return opentdb.TriviaQuestion{
		Category:         "Science",
		Type:             models.QuestionTypeBoolean,
		Difficulty:       "medium",
		Question:         text,
		CorrectAnswer:    correct,
		IncorrectAnswers: []string{incorrect},
	}
}

// createGame inserts a game directly, bypassing the lifecycle.
func createGame(t *testing.T, db *gorm.DB, active bool) *models.Game {
	t.Helper()

	game := models.Game{
		ServerID:  "server-1",
		ChannelID: fmt.Sprintf("chan-%s-%d", t.Name(), time.Now().UnixNano()),
		OwnerID:   "owner-1",
		Token:     "token-1",
		Active:    active,
		TimeLimit: 60,
	}
	if err := db.Create(&game).Error; err != nil {
		t.Fatalf("create game: %v", err)
	}
	return &game
}

// createQuestion inserts a hard question with options a (correct), b, c, d.
func createQuestion(t *testing.T, db *gorm.DB, game *models.Game, difficulty string) *models.Question {
	t.Helper()

	q := models.Question{
		GameID:     game.ID,
		Text:       "What is the answer?",
		Difficulty: difficulty,
		Category:   "General Knowledge",
		Type:       models.QuestionTypeMultiple,
		Answers: []models.Answer{
			{Text: "Right", Correct: true, Identifier: "a"},
			{Text: "Wrong one", Correct: false, Identifier: "b"},
			{Text: "Wrong two", Correct: false, Identifier: "c"},
			{Text: "Wrong three", Correct: false, Identifier: "d"},
		},
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return &q
}
