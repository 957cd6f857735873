// Package cognition turns the brain's free-text reply into a structured decision.
//
// The reply is expected to be prose wrapped around a single JSON object. The
// first balanced brace block is authoritative: later blocks are ignored even
// when they parse, and nothing is repaired or retried.
package cognition

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

var (
	// ErrNoJSON means the reply contains no balanced brace-delimited block.
	ErrNoJSON = errors.New("no JSON found in the response")
	// ErrInvalidJSON means the first balanced block is not a JSON object.
	ErrInvalidJSON = errors.New("invalid JSON extracted")
)

// FirstObject returns the first balanced {...} substring of s verbatim.
// "First" means the leftmost opening brace that is eventually closed; an
// opening brace that never closes is skipped in favour of a later one.
//
// Braces are counted without regard to string literals, so a brace inside a
// quoted value shifts the boundary. Closing braces with no opener are ignored.
func FirstObject(s string) (string, bool) {
	var open []int
	start, end := -1, -1

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			open = append(open, i)
		case '}':
			if len(open) == 0 {
				continue
			}
			p := open[len(open)-1]
			open = open[:len(open)-1]
			if start == -1 || p < start {
				start, end = p, i
			}
		}
	}

	if start == -1 {
		return "", false
	}
	return s[start : end+1], true
}

// Extract pulls the first embedded JSON object out of raw.
func Extract(raw string) (map[string]interface{}, error) {
	block, ok := FirstObject(raw)
	if !ok {
		return nil, ErrNoJSON
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(block), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if obj == nil {
		return nil, ErrInvalidJSON
	}
	return obj, nil
}
