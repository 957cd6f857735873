package cognition

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Keys of the cognition wire format.
const (
	KeyProcess = "process_key"
	KeyContext = "process_context"
	KeyReason  = "process_reason"
)

// ErrMalformedPayload means the decision object does not follow the cognition wire format.
var ErrMalformedPayload = errors.New("malformed cognition payload")

// Payload is the decision extracted from a brain reply.
//
// ProcessKey stays raw: in select mode it holds a JSON string naming a
// registered process, in synthesize mode a complete process document.
type Payload struct {
	ProcessKey     json.RawMessage        `json:"process_key"`
	ProcessContext map[string]interface{} `json:"process_context"`
	ProcessReason  string                 `json:"process_reason"`
}

// Decode extracts the first JSON object from raw and maps it onto a Payload.
// Extraction errors (ErrNoJSON, ErrInvalidJSON) are returned unchanged in the chain.
func Decode(raw string) (*Payload, error) {
	obj, err := Extract(raw)
	if err != nil {
		return nil, err
	}
	return FromObject(obj)
}

// FromObject maps an already extracted object onto a Payload.
func FromObject(obj map[string]interface{}) (*Payload, error) {
	p := &Payload{ProcessContext: map[string]interface{}{}}

	if v, ok := obj[KeyProcess]; ok && v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, KeyProcess, err)
		}
		p.ProcessKey = data
	}

	if v, ok := obj[KeyContext]; ok && v != nil {
		switch ctx := v.(type) {
		case map[string]interface{}:
			p.ProcessContext = ctx
		case []interface{}:
			// An empty JSON array is how some models spell an empty object.
			if len(ctx) != 0 {
				return nil, fmt.Errorf("%w: %s must be an object", ErrMalformedPayload, KeyContext)
			}
		default:
			return nil, fmt.Errorf("%w: %s must be an object, got %T", ErrMalformedPayload, KeyContext, v)
		}
	}

	if v, ok := obj[KeyReason]; ok && v != nil {
		reason, ok := v.(string)
		if !ok {
			reason = fmt.Sprintf("%v", v)
		}
		p.ProcessReason = reason
	}

	return p, nil
}

// IsEmptyKey reports whether the decision names no process: the key is
// absent, null, an empty string, an empty object or an empty array.
func (p *Payload) IsEmptyKey() bool {
	trimmed := bytes.TrimSpace(p.ProcessKey)
	switch string(trimmed) {
	case "", "null", `""`, "{}", "[]", "false", "0":
		return true
	}
	return false
}

// KeyString returns the process key as a string for select mode.
// A non-string key is returned in its JSON form.
func (p *Payload) KeyString() string {
	var s string
	if err := json.Unmarshal(p.ProcessKey, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(bytes.TrimSpace(p.ProcessKey))
}

// Document returns the raw process document for synthesize mode.
func (p *Payload) Document() []byte {
	return bytes.TrimSpace(p.ProcessKey)
}
