// Package nodecode provides the node codes a process runs.
//
// A node code is registered once with its static metadata: the configuration
// values it reads, the result codes it can return, and the catalog nodes it
// contributes. Nothing is discovered at runtime.
//
// Architecture:
//
//	CatalogNode.NodeCodeKey → Registry.Get() → Merge(catalog, node) → NodeCode.Execute()
package nodecode

import (
	"context"

	"procagent/internal/process"
	"procagent/internal/types"
)

// Category groups node codes for display.
type Category string

const (
	CategoryFlow  Category = "flow"
	CategoryData  Category = "data"
	CategoryGenAI Category = "genai"
	CategoryFile  Category = "file"
)

// Result is the outcome of one node code execution. Status selects the edge
// the engine follows next.
type Result struct {
	Status  string
	Message string
}

// ExecuteFunc runs a node code against the execution context.
// cfg already holds the merged catalog and node configuration with defaults applied.
type ExecuteFunc func(ctx context.Context, cfg Config, pc *process.Context) (Result, error)

// NodeCode is a unit of work a process node can run.
type NodeCode struct {
	// Key is the unique identifier referenced by catalog nodes.
	Key string

	// Name is a human readable label.
	Name string

	// Description explains what the node code does.
	Description string

	Category Category

	// Configuration lists every configuration value the node code reads.
	Configuration []types.ConfigDescriptor

	// Results lists every status the node code may return.
	Results []types.ResultDescription

	// CatalogNodes are the catalog entries this node code contributes.
	CatalogNodes []types.CatalogNode

	Execute ExecuteFunc
}

// Validate checks if the node code definition is valid.
func (n *NodeCode) Validate() error {
	if n.Key == "" {
		return ErrKeyEmpty
	}
	if n.Execute == nil {
		return ErrExecuteNil
	}
	seen := make(map[string]bool, len(n.Configuration))
	for _, d := range n.Configuration {
		if d.Key == "" {
			return ErrDescriptorKeyEmpty
		}
		if seen[d.Key] {
			return ErrDuplicateDescriptor
		}
		seen[d.Key] = true
	}
	return nil
}

// Descriptor returns the configuration descriptor with the given key.
func (n *NodeCode) Descriptor(key string) (types.ConfigDescriptor, bool) {
	for _, d := range n.Configuration {
		if d.Key == key {
			return d, true
		}
	}
	return types.ConfigDescriptor{}, false
}

// done builds an ok Result with a formatted message.
func done(format string, args ...interface{}) Result {
	return Result{Status: types.ResultOK, Message: sprintf(format, args...)}
}
