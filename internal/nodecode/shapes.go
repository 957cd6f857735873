package nodecode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"procagent/internal/types"
)

// FieldType is the value type of a shape field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
	FieldBool   FieldType = "bool"
	FieldArray  FieldType = "array"
	FieldMixed  FieldType = "mixed"
)

// Field describes one property of a model shape. Description, Intent and
// Examples are written into prompts asking a brain to produce the model.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Type        FieldType `yaml:"type" json:"type"`
	Description string    `yaml:"description" json:"description"`
	Intent      string    `yaml:"intent,omitempty" json:"intent,omitempty"`
	Examples    []string  `yaml:"examples,omitempty" json:"examples,omitempty"`
}

// Shape is a declarative model: an ordered field table used both to describe
// the model to a brain and to hydrate the brain's answer.
type Shape struct {
	Key    string  `yaml:"key" json:"key"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Shapes is a registry of model shapes keyed by Shape.Key.
type Shapes struct {
	mu     sync.RWMutex
	shapes map[string]Shape
}

// NewShapes creates a shape registry.
func NewShapes(shapes ...Shape) *Shapes {
	s := &Shapes{shapes: make(map[string]Shape)}
	for _, shape := range shapes {
		s.Put(shape)
	}
	return s
}

// Put adds or replaces a shape.
func (s *Shapes) Put(shape Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shapes[shape.Key] = shape
}

// Get returns the shape registered under key.
func (s *Shapes) Get(key string) (Shape, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shape, ok := s.shapes[key]
	if !ok {
		return Shape{}, fmt.Errorf("%w: %q", ErrUnknownShape, key)
	}
	return shape, nil
}

// Keys returns the registered shape keys in lexical order.
func (s *Shapes) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.SortedKeys(s.shapes)
}

// Describe renders the prompt that asks for this shape, starting with preamble.
func (sh Shape) Describe(preamble string) string {
	parts := []string{preamble}
	for _, f := range sh.Fields {
		var b strings.Builder
		fmt.Fprintf(&b, "Property: %s\n", f.Name)
		fmt.Fprintf(&b, "Type: %s\n", f.fieldType())
		fmt.Fprintf(&b, "Description: %s\n", f.Description)
		fmt.Fprintf(&b, "Intent: %s\n", f.Intent)
		fmt.Fprintf(&b, "Examples:\n  %s\n", strings.Join(f.Examples, "\n  "))
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}

func (f Field) fieldType() FieldType {
	if f.Type == "" {
		return FieldMixed
	}
	return f.Type
}

var (
	fencedJSON    = regexp.MustCompile("(?s)```json(.*?)```")
	blockComments = regexp.MustCompile(`/\*[\s\S]*?\*/`)
)

// Hydrate reads the first ```json fenced block of reply and builds a model
// from it. Fields absent from the answer are left out; present fields are
// coerced to their declared type.
func (sh Shape) Hydrate(reply string) (map[string]interface{}, error) {
	m := fencedJSON.FindStringSubmatch(reply)
	if m == nil {
		return nil, ErrNoFencedJSON
	}
	body := strings.TrimSpace(stripLineComments(blockComments.ReplaceAllString(m[1], "")))

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", sh.Key, err)
	}

	out := make(map[string]interface{}, len(sh.Fields))
	for _, f := range sh.Fields {
		v, ok := data[f.Name]
		if !ok || v == nil {
			continue
		}
		out[f.Name] = coerce(f.fieldType(), v)
	}
	return out, nil
}

// stripLineComments removes // comments that are not part of an http(s) URL.
func stripLineComments(s string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(s, "\n") {
		search := 0
		for {
			i := strings.Index(line[search:], "//")
			if i < 0 {
				b.WriteString(line)
				break
			}
			i += search
			prefix := line[:i]
			if strings.HasSuffix(prefix, "http:") || strings.HasSuffix(prefix, "https:") {
				search = i + 2
				continue
			}
			b.WriteString(prefix)
			if strings.HasSuffix(line, "\n") {
				b.WriteString("\n")
			}
			break
		}
	}
	return b.String()
}

func coerce(t FieldType, v interface{}) interface{} {
	if t == FieldArray {
		if list, ok := v.([]interface{}); ok {
			return list
		}
		return []interface{}{v}
	}

	if list, ok := v.([]interface{}); ok {
		items := make([]string, len(list))
		for i, item := range list {
			items[i] = types.ExtractString(item)
		}
		v = strings.Join(items, "\n\n")
	}

	switch t {
	case FieldString:
		return types.ExtractString(v)
	case FieldInt:
		if n, ok := types.ExtractInt64(v); ok {
			return n
		}
		f, _ := strconv.ParseFloat(strings.TrimSpace(types.ExtractString(v)), 64)
		return int64(f)
	case FieldFloat:
		if f, ok := v.(float64); ok {
			return f
		}
		f, _ := strconv.ParseFloat(strings.TrimSpace(types.ExtractString(v)), 64)
		return f
	case FieldBool:
		return truthy(v)
	default:
		return v
	}
}

// truthy follows the loose boolean reading used for model answers:
// false, 0, "" and "0" are false.
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case int64:
		return x != 0
	case int:
		return x != 0
	case string:
		return x != "" && x != "0"
	default:
		return v != nil
	}
}
