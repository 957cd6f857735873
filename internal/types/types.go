// Package types provides shared type definitions used across procagent packages.
// This package exists to break import cycles between catalog, nodecode, process and agent.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"fmt"
	"sort"
)

// =============================================================================
// RESULT CODES
// =============================================================================

// Result codes emitted by node codes. Edges in a process map these codes to the
// key of the next node.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultSkip  = "skip"
	ResultTrue  = "true"
	ResultFalse = "false"
)

// Well-known node and catalog keys every process must use.
const (
	StartKey = "start"
	StopKey  = "stop"
)

// SchemaVersion is the only process document schema version understood here.
const SchemaVersion = 1

// =============================================================================
// CONFIGURATION METADATA
// =============================================================================

// ConfigKind describes the shape of a configuration value.
type ConfigKind string

const (
	KindString      ConfigKind = "string"
	KindStringArray ConfigKind = "string_array"
	KindInt         ConfigKind = "int"
	KindBool        ConfigKind = "bool"
	KindAny         ConfigKind = "any"
)

// ConfigDescriptor is a configuration value declared by a node code.
// Descriptors are static: a node code lists them once at registration.
type ConfigDescriptor struct {
	Key         string      `json:"key" yaml:"key"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Kind        ConfigKind  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Default     interface{} `json:"default,omitempty" yaml:"default,omitempty"`
	Optional    bool        `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// HasDefault reports whether the descriptor carries a usable default value.
// An empty string counts as no default.
func (d ConfigDescriptor) HasDefault() bool {
	if d.Default == nil {
		return false
	}
	if s, ok := d.Default.(string); ok && s == "" {
		return false
	}
	return true
}

// IsRequired reports whether a value must be supplied for this descriptor.
func (d ConfigDescriptor) IsRequired() bool {
	return !d.HasDefault() && !d.Optional
}

// ResultDescription documents one outcome code a node code may return.
type ResultDescription struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

// =============================================================================
// CATALOG
// =============================================================================

// CatalogNode is a reusable, pre-configured reference to a node code.
type CatalogNode struct {
	Key           string                 `json:"key" yaml:"key"`
	Name          string                 `json:"name" yaml:"name"`
	Group         string                 `json:"group,omitempty" yaml:"group,omitempty"`
	Description   string                 `json:"description" yaml:"description"`
	NodeCodeKey   string                 `json:"node_code_key" yaml:"node_code_key"`
	Configuration map[string]interface{} `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// =============================================================================
// PROCESS
// =============================================================================

// ProcessNode is one node of a process graph.
type ProcessNode struct {
	Key            string                 `json:"key"`
	CatalogNodeKey string                 `json:"catalog_node_key"`
	Description    string                 `json:"description,omitempty"`
	Configuration  map[string]interface{} `json:"configuration,omitempty"`
	Edges          map[string]string      `json:"edges"`
}

// Process is a directed graph of nodes connected by result-keyed edges.
type Process struct {
	SchemaVersion int                    `json:"schema_version"`
	Key           string                 `json:"key"`
	Version       int                    `json:"version"`
	Description   string                 `json:"description,omitempty"`
	Context       map[string]interface{} `json:"context"`
	Nodes         []ProcessNode          `json:"nodes"`
}

// Node returns the node with the given key.
func (p *Process) Node(key string) (ProcessNode, bool) {
	for _, n := range p.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return ProcessNode{}, false
}

// String implements fmt.Stringer.
func (p *Process) String() string {
	return fmt.Sprintf("%s@v%d (%d nodes)", p.Key, p.Version, len(p.Nodes))
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
