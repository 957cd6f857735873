package process

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"procagent/internal/types"
)

// Hydrate builds a Process from a JSON process document.
// Unknown fields are ignored; structural problems are left to the Validator.
// An empty array stands for an empty object in context, configuration and edges.
func Hydrate(data []byte) (*types.Process, error) {
	data, err := emptyArraysAsObjects(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHydration, err)
	}
	var p types.Process
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHydration, err)
	}
	normalize(&p)
	return &p, nil
}

func emptyArraysAsObjects(data []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	changed := objectify(doc, "context")

	var nodes []map[string]json.RawMessage
	if raw, ok := doc["nodes"]; ok && json.Unmarshal(raw, &nodes) == nil {
		nodesChanged := false
		for _, n := range nodes {
			if objectify(n, "configuration") {
				nodesChanged = true
			}
			if objectify(n, "edges") {
				nodesChanged = true
			}
		}
		if nodesChanged {
			raw, err := json.Marshal(nodes)
			if err != nil {
				return nil, err
			}
			doc["nodes"] = raw
			changed = true
		}
	}

	if !changed {
		return data, nil
	}
	return json.Marshal(doc)
}

func objectify(m map[string]json.RawMessage, key string) bool {
	raw, ok := m[key]
	if !ok || strings.Join(strings.Fields(string(raw)), "") != "[]" {
		return false
	}
	m[key] = json.RawMessage("{}")
	return true
}

// normalize replaces nil maps so downstream code never writes into a nil map.
func normalize(p *types.Process) {
	if p.Context == nil {
		p.Context = map[string]interface{}{}
	}
	for i := range p.Nodes {
		if p.Nodes[i].Configuration == nil {
			p.Nodes[i].Configuration = map[string]interface{}{}
		}
		if p.Nodes[i].Edges == nil {
			p.Nodes[i].Edges = map[string]string{}
		}
	}
}

// Clone returns a deep copy of p, nested context and configuration values
// included.
func Clone(p *types.Process) *types.Process {
	out := *p
	out.Context = CopyMap(p.Context)
	out.Nodes = make([]types.ProcessNode, len(p.Nodes))
	for i, n := range p.Nodes {
		n.Configuration = CopyMap(n.Configuration)
		edges := make(map[string]string, len(n.Edges))
		for k, v := range n.Edges {
			edges[k] = v
		}
		n.Edges = edges
		out.Nodes[i] = n
	}
	return &out
}
