// Package brain provides the reasoning backends an agent thinks with.
//
// A Brain never returns a Go error: transport and protocol failures are
// reported in Thought.Err so the caller decides how fatal they are.
package brain

import "context"

// SystemPrompt is the fixed system role every backend sends.
const SystemPrompt = "You are an AI assistant."

// DefaultTemperature is the sampling temperature every backend sends.
const DefaultTemperature = 0.7

// Thought is the answer of one think call. Exactly one of Content and Err is
// meaningful: an empty Err with empty Content means the backend answered
// without content.
type Thought struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Err     string `json:"error,omitempty"`
}

// HasContent reports whether the thought carries usable content.
func (t Thought) HasContent() bool {
	return t.Err == "" && t.Content != ""
}

// Brain turns a prompt into free text.
type Brain interface {
	Think(ctx context.Context, prompt string) Thought
}

// Func adapts a function to the Brain interface.
type Func func(ctx context.Context, prompt string) Thought

// Think implements Brain.
func (f Func) Think(ctx context.Context, prompt string) Thought {
	return f(ctx, prompt)
}

func failed(format string, err error) Thought {
	if err == nil {
		return Thought{Err: format}
	}
	return Thought{Err: format + ": " + err.Error()}
}
