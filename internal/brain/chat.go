package brain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"procagent/internal/logging"
	"procagent/internal/usage"
)

// ChatConfig configures a ChatBrain.
type ChatConfig struct {
	APIURL      string
	APIKey      string
	Model       string
	Temperature *float64 // nil means DefaultTemperature
	Timeout     time.Duration
}

// ChatBrain talks to an OpenAI-compatible chat completion endpoint.
// It makes exactly one request per Think call; there are no retries.
type ChatBrain struct {
	apiURL      string
	apiKey      string
	model       string
	temperature float64
	timeout     time.Duration
	httpClient  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewChatBrain creates a chat brain. A zero timeout means 120s.
func NewChatBrain(cfg ChatConfig) *ChatBrain {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	return &ChatBrain{
		apiURL:      cfg.APIURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: temperature,
		timeout:     cfg.Timeout,
		httpClient:  &http.Client{},
	}
}

// Think sends the prompt as the user message and returns the first choice.
func (c *ChatBrain) Think(ctx context.Context, prompt string) Thought {
	// Apply the configured deadline when the caller set none.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.BrainDebug("[Chat] Think: model=%s prompt_len=%d", c.model, len(prompt))

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return failed("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return failed("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.BrainError("[Chat] Think: request failed after %v: %v", time.Since(startTime), err)
		return failed("request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.BrainError("[Chat] Think: status %d", resp.StatusCode)
		return Thought{Err: fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(data))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return failed("failed to parse response", err)
	}
	if parsed.Error != nil {
		return Thought{Err: "API error: " + parsed.Error.Message}
	}
	if parsed.Usage != nil {
		usage.Track(ctx, "openai", c.model, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
	}
	if len(parsed.Choices) == 0 {
		// Mirrors an endpoint answering without a message: no content, no error.
		logging.BrainError("[Chat] Think: no completion returned")
		return Thought{}
	}

	msg := parsed.Choices[0].Message
	logging.Brain("[Chat] Think: completed in %v response_len=%d", time.Since(startTime), len(msg.Content))
	return Thought{Role: msg.Role, Content: msg.Content}
}
