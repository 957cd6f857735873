package brain

import (
	"context"
	"sync"
)

// ScriptedBrain replays fixed replies in order. It records every prompt it
// receives, which makes it the brain of choice for tests and dry runs.
type ScriptedBrain struct {
	mu      sync.Mutex
	replies []Thought
	next    int
	prompts []string
}

// NewScriptedBrain returns a brain answering with replies as content.
func NewScriptedBrain(replies ...string) *ScriptedBrain {
	thoughts := make([]Thought, len(replies))
	for i, r := range replies {
		thoughts[i] = Thought{Role: "assistant", Content: r}
	}
	return NewScriptedThoughts(thoughts...)
}

// NewScriptedThoughts returns a brain answering with the given thoughts.
func NewScriptedThoughts(thoughts ...Thought) *ScriptedBrain {
	return &ScriptedBrain{replies: thoughts}
}

// Think returns the next scripted thought. When the script is exhausted the
// last reply is repeated; an empty script yields an error thought.
func (s *ScriptedBrain) Think(ctx context.Context, prompt string) Thought {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)

	if err := ctx.Err(); err != nil {
		return failed("request failed", err)
	}
	if len(s.replies) == 0 {
		return Thought{Err: "no scripted replies"}
	}
	i := s.next
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	} else {
		s.next++
	}
	return s.replies[i]
}

// Prompts returns every prompt received so far.
func (s *ScriptedBrain) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Calls returns how many times Think was called.
func (s *ScriptedBrain) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
