package brain

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"procagent/internal/logging"
	"procagent/internal/usage"
)

// GeminiBrain thinks with Google's Gemini API.
type GeminiBrain struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// NewGeminiBrain creates a Gemini brain. An empty model means gemini-2.5-flash.
// The temperature is sent as given; zero is a valid setting.
func NewGeminiBrain(apiKey, model string, temperature float64, timeout time.Duration) (*GeminiBrain, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiBrain{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		timeout:     timeout,
	}, nil
}

// Think implements Brain.
func (g *GeminiBrain) Think(ctx context.Context, prompt string) Thought {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	startTime := time.Now()
	temperature := g.temperature
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
			Temperature:       &temperature,
		},
	)
	if err != nil {
		logging.BrainError("[Gemini] Think: request failed after %v: %v", time.Since(startTime), err)
		return failed("request failed", err)
	}

	if md := resp.UsageMetadata; md != nil {
		usage.Track(ctx, "gemini", g.model, int(md.PromptTokenCount), int(md.CandidatesTokenCount))
	}

	text := resp.Text()
	logging.Brain("[Gemini] Think: completed in %v response_len=%d", time.Since(startTime), len(text))
	return Thought{Role: "assistant", Content: text}
}
