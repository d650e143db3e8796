// Package llm talks to an OpenAI-compatible chat-completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"go.uber.org/zap"

	"github.com/eringen/fitpress/log"
)

// Completer turns a prompt into raw completion text.
type Completer interface {
	Complete(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// Config configures a Client.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	APIPath string        `yaml:"api_path"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client is a Completer over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	apiPath    string
	httpClient *http.Client
}

// NewClient returns a Client with defaults filled in.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.APIPath == "" {
		cfg.APIPath = "/v1/chat/completions"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		apiPath:    cfg.APIPath,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completion and returns the first choice's text.
// It does not retry.
func (c *Client) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", errors.Wrap(err, "marshal completion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.apiPath, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build completion request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "completion request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", errors.Errorf("completion server returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode completion response")
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}

	log.Logger.Debug("completion finished",
		zap.String("model", c.model),
		zap.Int("total_tokens", out.Usage.TotalTokens),
		zap.Duration("took", time.Since(start)))
	return out.Choices[0].Message.Content, nil
}

// DefaultJSONSystemPrompt is used by CompleteJSON when none is given.
const DefaultJSONSystemPrompt = "You are a fitness and nutrition AI assistant. " +
	"Provide detailed, accurate, and helpful responses in JSON format."

// CompleteJSON asks c for a JSON object and decodes it into v.
// A Markdown code fence around the object is tolerated.
func CompleteJSON(ctx context.Context, c Completer, prompt, systemPrompt string, v any) error {
	if systemPrompt == "" {
		systemPrompt = DefaultJSONSystemPrompt
	}
	text, err := c.Complete(ctx, prompt+"\n\nRespond with a valid JSON object only.", systemPrompt)
	if err != nil {
		return err
	}
	return DecodeJSON(text, v)
}

// DecodeJSON decodes a completion that should hold one JSON object.
func DecodeJSON(text string, v any) error {
	if err := json.Unmarshal([]byte(StripFence(text)), v); err != nil {
		return errors.Wrap(err, "completion is not valid JSON")
	}
	return nil
}

// StripFence removes a surrounding ``` or ```json fence, if any.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
