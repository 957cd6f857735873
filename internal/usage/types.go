package usage

import "time"

// Data is the persisted usage file.
type Data struct {
	Version   string `json:"version"`
	Aggregate Stats  `json:"aggregate"`
}

// Event is a single brain call.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model"`
	Provider     string    `json:"provider"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Operation    string    `json:"operation"` // agent mode: select, synthesize
}

// Stats holds counters broken down by various dimensions.
type Stats struct {
	Total       TokenCounts            `json:"total"`
	Calls       int64                  `json:"calls"`
	ByProvider  map[string]TokenCounts `json:"by_provider"`
	ByModel     map[string]TokenCounts `json:"by_model"`
	ByOperation map[string]TokenCounts `json:"by_operation"`
}

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
	Total  int64 `json:"total"`
}

func (tc *TokenCounts) Add(input, output int) {
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
}
