// Package bot routes gateway messages: prefixed administrative commands go
// to the game lifecycle, everything else is treated as a potential answer.
package bot

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"trivia-game-backend/internal/chat"
	"trivia-game-backend/internal/discord"
	"trivia-game-backend/internal/services"
)

type Bot struct {
	games     *services.GameService
	answers   *services.AnswerService
	transport chat.Transport
	prefix    string
	ownerID   string
}

func New(games *services.GameService, answers *services.AnswerService, transport chat.Transport, prefix, ownerID string) *Bot {
	return &Bot{
		games:     games,
		answers:   answers,
		transport: transport,
		prefix:    prefix,
		ownerID:   ownerID,
	}
}

// HandleMessage is the gateway dispatch target.
func (b *Bot) HandleMessage(evt discord.MessageEvent) {
	if evt.GuildID == "" {
		return
	}

	if strings.HasPrefix(evt.Content, b.prefix) {
		b.handleCommand(evt)
		return
	}

	b.answers.HandleMessage(evt.ChannelID, evt.UserID, evt.Content)
}

func (b *Bot) handleCommand(evt discord.MessageEvent) {
	if b.ownerID != "" && evt.UserID != b.ownerID {
		return
	}

	command := strings.Fields(strings.TrimPrefix(evt.Content, b.prefix))
	if len(command) == 0 {
		return
	}

	switch command[0] {
	case "new":
		b.commandNew(evt)
	case "start":
		b.commandStart(evt)
	case "end":
		b.commandEnd(evt)
	}
}

func (b *Bot) commandNew(evt discord.MessageEvent) {
	game, err := b.games.Create(evt.GuildID, evt.UserID)
	if errors.Is(err, services.ErrActiveGameExists) {
		b.reply(evt.ChannelID, fmt.Sprintf("`existing game:` <#%s>", game.ChannelID))
		return
	}
	if err != nil {
		log.Printf("bot: new game: %v", err)
		b.reply(evt.ChannelID, "`could not create a game, try again later`")
		return
	}
	b.reply(evt.ChannelID, fmt.Sprintf("`created game:` <#%s>", game.ChannelID))
}

func (b *Bot) commandStart(evt discord.MessageEvent) {
	if err := b.games.Start(evt.ChannelID); err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			b.reply(evt.ChannelID, "`no existing game in this channel (or game already started)`")
			return
		}
		log.Printf("bot: start game: %v", err)
		b.reply(evt.ChannelID, "`could not start the game, try again later`")
	}
}

func (b *Bot) commandEnd(evt discord.MessageEvent) {
	if err := b.games.End(evt.ChannelID); err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			b.reply(evt.ChannelID, "`no existing game in this channel`")
			return
		}
		log.Printf("bot: end game: %v", err)
	}
}

func (b *Bot) reply(channelID, content string) {
	if _, err := b.transport.SendEmbed(channelID, content, nil); err != nil {
		log.Printf("bot: reply to %s: %v", channelID, err)
	}
}
