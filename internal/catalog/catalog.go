// Package catalog holds the catalog nodes a process may reference. Node codes
// contribute their own catalog entries; a YAML catalog file adds more and may
// redefine built-in entries.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"procagent/internal/logging"
	"procagent/internal/nodecode"
	"procagent/internal/types"
)

// ErrUnknownCatalogNode is returned when no catalog node has the requested key.
var ErrUnknownCatalogNode = errors.New("unknown catalog node")

// File is the on-disk catalog format.
type File struct {
	Version int                 `yaml:"version"`
	Nodes   []types.CatalogNode `yaml:"nodes"`
	Shapes  []nodecode.Shape    `yaml:"shapes,omitempty"`
}

// Catalog is an ordered set of catalog nodes. Iteration order is insertion
// order, which is also the order nodes appear in rendered prompts.
type Catalog struct {
	mu    sync.RWMutex
	nodes map[string]types.CatalogNode
	order []string
}

// New creates a catalog holding nodes in the given order. A later node with
// an existing key replaces the earlier one in place.
func New(nodes ...types.CatalogNode) *Catalog {
	c := &Catalog{nodes: make(map[string]types.CatalogNode)}
	for _, n := range nodes {
		c.Put(n)
	}
	return c
}

// Put adds or replaces a catalog node.
func (c *Catalog) Put(n types.CatalogNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.nodes[n.Key]; !exists {
		c.order = append(c.order, n.Key)
	}
	c.nodes[n.Key] = n
}

// GetCatalogNode returns the catalog node with the given key.
func (c *Catalog) GetCatalogNode(key string) (types.CatalogNode, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[key]
	if !ok {
		return types.CatalogNode{}, fmt.Errorf("%w: %s", ErrUnknownCatalogNode, key)
	}
	return n, nil
}

// GetCatalogNodes returns every catalog node in catalog order.
func (c *Catalog) GetCatalogNodes() []types.CatalogNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.CatalogNode, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.nodes[key])
	}
	return out
}

// Len returns the number of catalog nodes.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Check reports catalog nodes that reference unregistered node codes.
func (c *Catalog) Check(codes *nodecode.Registry) []string {
	var errs []string
	for _, n := range c.GetCatalogNodes() {
		if n.NodeCodeKey == "" {
			errs = append(errs, fmt.Sprintf("catalog node %q has no node_code_key", n.Key))
			continue
		}
		if !codes.Has(n.NodeCodeKey) {
			errs = append(errs, fmt.Sprintf("catalog node %q references unknown node code %q", n.Key, n.NodeCodeKey))
		}
	}
	return errs
}

// ReadFile parses a catalog file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return &f, nil
}

// Load builds the catalog from the node codes' own entries followed by the
// entries of the file at path. A missing file yields only the built-in
// entries. Shapes declared in the file are added to shapes when non-nil.
func Load(path string, codes *nodecode.Registry, shapes *nodecode.Shapes) (*Catalog, error) {
	c := New(codes.CatalogNodes()...)

	f, err := ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Get(logging.CategoryCatalog).Warn("catalog file %s not found, using built-in nodes only", path)
			return c, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	for _, n := range f.Nodes {
		if n.Key == "" {
			return nil, fmt.Errorf("catalog %s: node without key", path)
		}
		c.Put(n)
	}
	if shapes != nil {
		for _, s := range f.Shapes {
			shapes.Put(s)
		}
	}

	if errs := c.Check(codes); len(errs) > 0 {
		return nil, fmt.Errorf("catalog %s: %v", path, errs)
	}

	logging.Get(logging.CategoryCatalog).Info("catalog loaded: %d nodes, %d shapes from %s", c.Len(), len(f.Shapes), path)
	return c, nil
}
