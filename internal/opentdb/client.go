package opentdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrSourceUnavailable wraps every failure to obtain questions or session
// tokens. Callers propagate it; a later advance attempt simply retries.
var ErrSourceUnavailable = errors.New("opentdb: source unavailable")

const DefaultBaseURL = "https://opentdb.com"

// Client talks to the Open Trivia Database. A session token excludes
// questions already served to the same game.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

func (c *Client) get(route string, params url.Values, out interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + "/" + route + "?" + params.Encode())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read: %v", ErrSourceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", ErrSourceUnavailable, err)
	}
	return nil
}

// RequestToken acquires a fresh session token.
func (c *Client) RequestToken() (string, error) {
	params := url.Values{}
	params.Set("command", "request")

	var res tokenResponse
	if err := c.get("api_token.php", params, &res); err != nil {
		return "", err
	}
	if res.ResponseCode != codeSuccess {
		return "", fmt.Errorf("%w: response code %d", ErrSourceUnavailable, res.ResponseCode)
	}
	return res.Token, nil
}

// ResetToken releases the question history held by a session token.
func (c *Client) ResetToken(token string) error {
	params := url.Values{}
	params.Set("command", "reset")
	params.Set("token", token)

	var res tokenResponse
	if err := c.get("api_token.php", params, &res); err != nil {
		return err
	}
	if res.ResponseCode != codeSuccess {
		return fmt.Errorf("%w: response code %d", ErrSourceUnavailable, res.ResponseCode)
	}
	return nil
}

// Fetch returns up to amount questions, optionally filtered by difficulty
// and category. Question and answer text arrive HTML-entity encoded; the
// caller decodes before storage.
func (c *Client) Fetch(token string, amount int, difficulty string, category int) ([]TriviaQuestion, error) {
	params := url.Values{}
	params.Set("amount", strconv.Itoa(amount))
	if token != "" {
		params.Set("token", token)
	}
	if difficulty != "" {
		params.Set("difficulty", difficulty)
	}
	if category != 0 {
		params.Set("category", strconv.Itoa(category))
	}

	var res questionsResponse
	if err := c.get("api.php", params, &res); err != nil {
		return nil, err
	}
	if res.ResponseCode != codeSuccess {
		return nil, fmt.Errorf("%w: response code %d", ErrSourceUnavailable, res.ResponseCode)
	}
	return res.Results, nil
}
