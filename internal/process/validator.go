package process

import (
	"fmt"

	"procagent/internal/types"
)

// Rule inspects a process and reports problems as human-readable messages.
type Rule func(p *types.Process) []string

// Validator runs a fixed set of rules against a process.
// An empty result means the process is valid.
type Validator struct {
	rules []Rule
}

// NewValidator returns a validator with the structural rules and, when catalog
// is non-nil, a rule checking that every catalog node key exists.
func NewValidator(catalog types.CatalogSource, extra ...Rule) *Validator {
	rules := []Rule{
		validateHeader,
		validateNodeKeys,
		validateStart,
		validateStop,
		validateEdges,
	}
	if catalog != nil {
		rules = append(rules, catalogRule(catalog))
	}
	rules = append(rules, extra...)
	return &Validator{rules: rules}
}

// Validate returns every problem found; nil when the process is valid.
func (v *Validator) Validate(p *types.Process) []string {
	if p == nil {
		return []string{"process is nil"}
	}
	var errs []string
	for _, rule := range v.rules {
		errs = append(errs, rule(p)...)
	}
	return errs
}

func validateHeader(p *types.Process) []string {
	var errs []string
	if p.SchemaVersion != types.SchemaVersion {
		errs = append(errs, fmt.Sprintf("unsupported schema_version %d (expected %d)", p.SchemaVersion, types.SchemaVersion))
	}
	if p.Key == "" {
		errs = append(errs, "process key is required")
	}
	if len(p.Nodes) == 0 {
		errs = append(errs, "process has no nodes")
	}
	return errs
}

func validateNodeKeys(p *types.Process) []string {
	var errs []string
	seen := make(map[string]bool, len(p.Nodes))
	for i, n := range p.Nodes {
		if n.Key == "" {
			errs = append(errs, fmt.Sprintf("node %d has no key", i))
			continue
		}
		if seen[n.Key] {
			errs = append(errs, fmt.Sprintf("duplicate node key %q", n.Key))
		}
		seen[n.Key] = true
		if n.CatalogNodeKey == "" {
			errs = append(errs, fmt.Sprintf("node %q has no catalog_node_key", n.Key))
		}
	}
	return errs
}

func validateStart(p *types.Process) []string {
	count := 0
	var start types.ProcessNode
	for _, n := range p.Nodes {
		if n.Key == types.StartKey {
			count++
			start = n
		}
	}
	switch {
	case count == 0:
		return []string{"process has no start node"}
	case count > 1:
		return nil // reported as a duplicate key
	}
	if _, ok := start.Edges[types.ResultOK]; !ok {
		return []string{fmt.Sprintf("start node has no %q edge", types.ResultOK)}
	}
	return nil
}

func isStop(n types.ProcessNode) bool {
	return n.Key == types.StopKey || n.CatalogNodeKey == types.StopKey
}

func validateStop(p *types.Process) []string {
	var errs []string
	stops := 0
	for _, n := range p.Nodes {
		if !isStop(n) {
			continue
		}
		stops++
		if len(n.Edges) > 0 {
			errs = append(errs, fmt.Sprintf("stop node %q must not have edges", n.Key))
		}
	}
	if stops == 0 {
		errs = append(errs, "process has no stop node")
	}
	return errs
}

func validateEdges(p *types.Process) []string {
	var errs []string
	keys := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		keys[n.Key] = true
	}
	for _, n := range p.Nodes {
		if !isStop(n) && len(n.Edges) == 0 {
			errs = append(errs, fmt.Sprintf("node %q has no edges", n.Key))
		}
		for _, result := range types.SortedKeys(n.Edges) {
			target := n.Edges[result]
			if !keys[target] {
				errs = append(errs, fmt.Sprintf("node %q edge %q points to unknown node %q", n.Key, result, target))
			}
		}
	}
	return errs
}

func catalogRule(catalog types.CatalogSource) Rule {
	return func(p *types.Process) []string {
		var errs []string
		for _, n := range p.Nodes {
			if n.CatalogNodeKey == "" {
				continue
			}
			if _, err := catalog.GetCatalogNode(n.CatalogNodeKey); err != nil {
				errs = append(errs, fmt.Sprintf("node %q references unknown catalog node %q", n.Key, n.CatalogNodeKey))
			}
		}
		return errs
	}
}
