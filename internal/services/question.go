package services

import (
	"errors"
	"fmt"
	"html"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"trivia-game-backend/internal/chat"
	"trivia-game-backend/internal/models"
	"trivia-game-backend/internal/opentdb"
	"trivia-game-backend/internal/scheduler"
	"trivia-game-backend/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// QuestionBuffer is how many questions to fetch at a time, after the
	// game just started or ran out.
	QuestionBuffer = 10

	// QuestionDelay is how long to wait between questions.
	QuestionDelay = 10 * time.Second

	embedColor      = 0x3b88c3
	leaderboardSize = 10
)

// QuestionService drives the question lifecycle: buffering from the source,
// posting to the channel, and resolving results when the expiry timer fires.
type QuestionService struct {
	db        *gorm.DB
	transport chat.Transport
	source    QuestionSource
	sched     *scheduler.Scheduler
	scoring   *ScoringService
	hub       *ws.Hub
	delay     time.Duration
}

func NewQuestionService(
	db *gorm.DB,
	transport chat.Transport,
	source QuestionSource,
	sched *scheduler.Scheduler,
	scoring *ScoringService,
	hub *ws.Hub,
) *QuestionService {
	return &QuestionService{
		db:        db,
		transport: transport,
		source:    source,
		sched:     sched,
		scoring:   scoring,
		hub:       hub,
		delay:     QuestionDelay,
	}
}

// CurrentQuestion returns the game's earliest unexpired question with its
// answers loaded, or nil when all questions are expired or none exist.
func (s *QuestionService) CurrentQuestion(game *models.Game) (*models.Question, error) {
	var questions []models.Question
	if err := s.db.Where("game_id = ?", game.ID).
		Order("id ASC").
		Preload("Answers").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	for i := range questions {
		if !questions[i].Expired() {
			return &questions[i], nil
		}
	}
	return nil, nil
}

// Advance ensures the game's current question is posted, buffering a fresh
// batch when the game ran out. Advancing an inactive or deleted game is a
// silent no-op; that is what makes stale timer callbacks safe.
func (s *QuestionService) Advance(gameID uint) error {
	var game models.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !game.Active {
		return nil
	}

	current, err := s.CurrentQuestion(&game)
	if err != nil {
		return err
	}
	if current == nil {
		log.Printf("question: game %d out of questions, populating", game.ID)
		batch, err := s.Populate(&game, QuestionBuffer)
		if err != nil {
			return err
		}
		current = batch[0]
	}

	return s.Post(&game, current)
}

// Populate fetches a batch from the question source, decodes it and persists
// questions with their answers. Questions with malformed type or difficulty
// are skipped.
func (s *QuestionService) Populate(game *models.Game, amount int) ([]*models.Question, error) {
	raw, err := s.source.Fetch(game.Token, amount, game.Difficulty, game.Category)
	if err != nil {
		return nil, err
	}

	var created []*models.Question
	for _, rq := range raw {
		q, err := buildQuestion(game, rq)
		if err != nil {
			log.Printf("question: skipping question for game %d: %v", game.ID, err)
			continue
		}
		if err := s.db.Create(q).Error; err != nil {
			return nil, err
		}
		created = append(created, q)
	}

	if len(created) == 0 {
		return nil, fmt.Errorf("%w: no usable questions", opentdb.ErrSourceUnavailable)
	}
	return created, nil
}

// Post sends the question to the game's channel, records the message id and
// expiry, and arms the expiry timer. Posting is idempotent: the first caller
// claims the message-id column atomically, every other call is a no-op.
func (s *QuestionService) Post(game *models.Game, q *models.Question) error {
	claim := "claim:" + uuid.NewString()
	res := s.db.Model(&models.Question{}).
		Where("id = ? AND message_id = ''", q.ID).
		Update("message_id", claim)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	if len(q.Answers) == 0 {
		if err := s.db.Where("question_id = ?", q.ID).Find(&q.Answers).Error; err != nil {
			return err
		}
	}

	answers := make([]models.Answer, len(q.Answers))
	copy(answers, q.Answers)
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].Identifier < answers[j].Identifier
	})

	lines := make([]string, len(answers))
	for i, a := range answers {
		lines[i] = answerLine(&a)
	}

	points := q.Points()
	plural := ""
	if points != 1 {
		plural = "s"
	}
	embed := &chat.Embed{
		Description: strings.Join(lines, "\n"),
		Color:       embedColor,
		Footer:      fmt.Sprintf("%s, %s (%d point%s)", q.Category, q.Difficulty, points, plural),
	}

	msgID, err := s.transport.SendEmbed(game.ChannelID, fmt.Sprintf("**%s** :thinking:", q.Text), embed)
	if err != nil {
		// Release the claim so a later advance can retry the post.
		s.db.Model(&models.Question{}).
			Where("id = ? AND message_id = ?", q.ID, claim).
			Update("message_id", "")
		return fmt.Errorf("post question %d: %w", q.ID, err)
	}

	expiry := time.Now().Add(time.Duration(game.TimeLimit) * time.Second)
	if err := s.db.Model(&models.Question{}).
		Where("id = ?", q.ID).
		Updates(map[string]interface{}{"message_id": msgID, "expires": expiry}).Error; err != nil {
		return err
	}
	q.MessageID = msgID
	q.Expires = &expiry

	gameID := game.ID
	questionID := q.ID
	s.sched.At(expiry, func() {
		if err := s.Resolve(questionID); err != nil {
			log.Printf("question: resolve %d: %v", questionID, err)
		}
		s.sched.At(time.Now().Add(s.delay), func() {
			if err := s.Advance(gameID); err != nil {
				log.Printf("question: advance game %d: %v", gameID, err)
			}
		})
	})

	s.hub.Broadcast(gameID, ws.Event{Type: ws.EventQuestionPosted, Data: map[string]interface{}{
		"question_id": q.ID,
		"text":        q.Text,
		"category":    q.Category,
		"difficulty":  q.Difficulty,
		"expires":     expiry,
	}})
	return nil
}

// Resolve posts the question's results: correct answer, winners and the
// leaderboard. The game may have ended and its channel be deleted while the
// timer was pending, so transport failures are logged and swallowed.
func (s *QuestionService) Resolve(questionID uint) error {
	var q models.Question
	if err := s.db.Preload("Answers").First(&q, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var game models.Game
	if err := s.db.First(&game, q.GameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	correct := q.CorrectAnswer()
	if correct == nil {
		return fmt.Errorf("question %d has no correct answer", q.ID)
	}

	content := fmt.Sprintf("\U0001F4A1 **Time's up!**\nThe correct answer is: :regional_indicator_%s: **%s**",
		correct.Identifier, correct.Text)
	embed := &chat.Embed{Color: embedColor}

	winners, err := s.Winners(&q)
	if err != nil {
		return err
	}
	if len(winners) > 0 {
		names := make([]string, len(winners))
		for i := range winners {
			names[i] = s.displayName(game.ServerID, winners[i].DiscordID)
		}
		embed.Description = fmt.Sprintf("⭐ **Winners: %s**", strings.Join(names, ", "))
	}

	leaders, err := s.scoring.Leaderboard(game.ID, leaderboardSize)
	if err != nil {
		return err
	}
	if len(leaders) > 0 {
		lines := make([]string, len(leaders))
		for i, p := range leaders {
			lines[i] = fmt.Sprintf("**%d.** %s (%d points)", i+1, s.displayName(game.ServerID, p.DiscordID), p.Score)
		}
		embed.Fields = append(embed.Fields, chat.EmbedField{
			Name:  "Leaderboard",
			Value: strings.Join(lines, "\n"),
		})
	}

	if _, err := s.transport.SendEmbed(game.ChannelID, content, embed); err != nil {
		log.Printf("question: results for %d: %v", q.ID, err)
	}

	winnerNames := make([]string, len(winners))
	for i := range winners {
		winnerNames[i] = winners[i].DiscordID
	}
	s.hub.Broadcast(game.ID, ws.Event{Type: ws.EventQuestionResolved, Data: map[string]interface{}{
		"question_id":    q.ID,
		"correct_answer": correct.Text,
		"winners":        winnerNames,
	}})
	return nil
}

// Winners are the players whose recorded answer for the question is correct.
func (s *QuestionService) Winners(q *models.Question) ([]models.Player, error) {
	var winners []models.Player
	err := s.db.
		Joins("JOIN player_answers ON player_answers.player_id = players.id").
		Joins("JOIN answers ON answers.id = player_answers.answer_id").
		Where("player_answers.question_id = ? AND answers.correct = ?", q.ID, true).
		Order("players.id ASC").
		Find(&winners).Error
	if err != nil {
		return nil, err
	}
	return winners, nil
}

func (s *QuestionService) displayName(serverID, userID string) string {
	name, err := s.transport.DisplayName(serverID, userID)
	if err != nil || name == "" {
		return userID
	}
	return name
}

func buildQuestion(game *models.Game, rq opentdb.TriviaQuestion) (*models.Question, error) {
	if _, ok := models.Points[rq.Difficulty]; !ok {
		return nil, fmt.Errorf("unknown difficulty %q", rq.Difficulty)
	}

	q := &models.Question{
		GameID:     game.ID,
		Text:       html.UnescapeString(rq.Question),
		Difficulty: rq.Difficulty,
		Category:   html.UnescapeString(rq.Category),
		Type:       rq.Type,
	}

	switch rq.Type {
	case models.QuestionTypeBoolean:
		if len(rq.IncorrectAnswers) == 0 {
			return nil, fmt.Errorf("boolean question without an incorrect answer")
		}
		correct := html.UnescapeString(rq.CorrectAnswer)
		incorrect := html.UnescapeString(rq.IncorrectAnswers[0])
		// The upstream feed marks both boolean answers correct. Only the
		// actual correct answer is flagged here, otherwise answering "False"
		// could never score. See DESIGN.md.
		q.Answers = []models.Answer{
			{Text: correct, Correct: true, Identifier: booleanIdentifier(correct)},
			{Text: incorrect, Correct: false, Identifier: booleanIdentifier(incorrect)},
		}

	case models.QuestionTypeMultiple:
		if rq.CorrectAnswer == "" || len(rq.IncorrectAnswers) == 0 {
			return nil, fmt.Errorf("multiple question without enough answers")
		}
		ids := shuffledIdentifiers(1 + len(rq.IncorrectAnswers))
		q.Answers = append(q.Answers, models.Answer{
			Text:       html.UnescapeString(rq.CorrectAnswer),
			Correct:    true,
			Identifier: ids[0],
		})
		for i, text := range rq.IncorrectAnswers {
			q.Answers = append(q.Answers, models.Answer{
				Text:       html.UnescapeString(text),
				Correct:    false,
				Identifier: ids[i+1],
			})
		}

	default:
		return nil, fmt.Errorf("unknown question type %q", rq.Type)
	}

	return q, nil
}

func booleanIdentifier(text string) string {
	if text == "True" {
		return "a"
	}
	return "b"
}

// shuffledIdentifiers returns the first n letters of the alphabet in random
// order, so the correct option's slot is not positionally predictable.
func shuffledIdentifiers(n int) []string {
	letters := make([]string, n)
	for i := range letters {
		letters[i] = string(rune('a' + i))
	}
	rand.Shuffle(len(letters), func(i, j int) {
		letters[i], letters[j] = letters[j], letters[i]
	})
	return letters
}

func answerLine(a *models.Answer) string {
	return fmt.Sprintf(":regional_indicator_%s: **%s**", a.Identifier, a.Text)
}
