package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"trivia-game-backend/internal/chat"
)

const (
	apiBaseURL = "https://discord.com/api/v10"

	channelTypeGuildText = 0
)

// Client is a minimal Discord REST client covering the calls the game
// engine needs. It implements chat.Transport.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

var _ chat.Transport = (*Client)(nil)

func NewClient(token string) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    apiBaseURL,
	}
}

func (c *Client) call(method, route string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+route, body)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("discord: %s (code %d)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("discord: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
	}
	return nil
}

func (c *Client) CreateChannel(serverID, name string) (string, error) {
	req := createChannelRequest{Name: name, Type: channelTypeGuildText}

	var ch Channel
	if err := c.call(http.MethodPost, "/guilds/"+serverID+"/channels", req, &ch); err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (c *Client) DeleteChannel(channelID string) error {
	return c.call(http.MethodDelete, "/channels/"+channelID, nil, nil)
}

func (c *Client) SendEmbed(channelID, content string, embed *chat.Embed) (string, error) {
	req := createMessageRequest{Content: content}
	if embed != nil {
		e := Embed{
			Description: embed.Description,
			Color:       embed.Color,
		}
		if embed.Footer != "" {
			e.Footer = &EmbedFooter{Text: embed.Footer}
		}
		for _, f := range embed.Fields {
			e.Fields = append(e.Fields, EmbedField{Name: f.Name, Value: f.Value})
		}
		req.Embeds = []Embed{e}
	}

	var msg Message
	if err := c.call(http.MethodPost, "/channels/"+channelID+"/messages", req, &msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (c *Client) DisplayName(serverID, userID string) (string, error) {
	var member GuildMember
	if err := c.call(http.MethodGet, "/guilds/"+serverID+"/members/"+userID, nil, &member); err != nil {
		return "", err
	}
	if member.Nick != "" {
		return member.Nick, nil
	}
	if member.User != nil {
		if member.User.GlobalName != "" {
			return member.User.GlobalName, nil
		}
		return member.User.Username, nil
	}
	return userID, nil
}
