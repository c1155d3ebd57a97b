package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LLMClient is the chat-completion boundary, stubbed out in tests.
type LLMClient interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (string, error)
}

// ChatRequest is one chat-completion call.
type ChatRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// ClientConfig holds connection details for the completion API.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	config     ClientConfig
	url        string
	logger     zerolog.Logger
}

// NewClient constructs a completion client.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		url:        base + "/chat/completions",
		logger:     logger.With().Str("component", "llm_client").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatCompletion sends one request and returns the first choice's
// message content.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("completion API key not configured")
	}

	payload := chatCompletionRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode completion payload: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}

	c.logger.Debug().
		Str("model", completion.Model).
		Int("total_tokens", completion.Usage.TotalTokens).
		Msg("completion received")

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

var (
	fenceRe     = regexp.MustCompile("```(?:json)?\\s*")
	jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)
)

// ExtractJSONArray pulls a JSON array out of a model response,
// tolerating markdown fences and surrounding prose.
func ExtractJSONArray(text string, v interface{}) error {
	text = fenceRe.ReplaceAllString(strings.TrimSpace(text), "")
	match := jsonArrayRe.FindString(text)
	if match == "" {
		return fmt.Errorf("no JSON array in response")
	}
	return json.Unmarshal([]byte(match), v)
}
