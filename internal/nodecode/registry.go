package nodecode

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"procagent/internal/logging"
	"procagent/internal/process"
	"procagent/internal/types"
)

// Registry holds all node codes and provides lookup functionality.
// It is thread-safe; registration normally happens once at startup.
type Registry struct {
	mu        sync.RWMutex
	nodeCodes map[string]*NodeCode

	// order keeps registration order for catalog seeding.
	order []string
}

// NewRegistry creates a new empty node code registry.
func NewRegistry() *Registry {
	return &Registry{nodeCodes: make(map[string]*NodeCode)}
}

// Register adds a node code to the registry.
// Returns an error if a node code with the same key already exists.
func (r *Registry) Register(n *NodeCode) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("invalid node code %q: %w", n.Key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodeCodes[n.Key]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, n.Key)
	}
	r.nodeCodes[n.Key] = n
	r.order = append(r.order, n.Key)

	logging.Get(logging.CategoryCatalog).Debug("registered node code: %s (%d descriptors, %d results)",
		n.Key, len(n.Configuration), len(n.Results))
	return nil
}

// MustRegister registers a node code and panics on error.
// Use this for static registration at startup.
func (r *Registry) MustRegister(n *NodeCode) {
	if err := r.Register(n); err != nil {
		panic(fmt.Sprintf("failed to register node code %s: %v", n.Key, err))
	}
}

// Get returns a node code by key.
func (r *Registry) Get(key string) (*NodeCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodeCodes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return n, nil
}

// Has returns true if a node code with the given key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodeCodes[key]
	return ok
}

// Descriptors returns the configuration descriptors declared by a node code.
func (r *Registry) Descriptors(key string) ([]types.ConfigDescriptor, error) {
	n, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	return n.Configuration, nil
}

// Results returns the result descriptions declared by a node code.
func (r *Registry) Results(key string) ([]types.ResultDescription, error) {
	n, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	return n.Results, nil
}

// All returns all node codes in registration order.
func (r *Registry) All() []*NodeCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*NodeCode, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.nodeCodes[key])
	}
	return out
}

// Keys returns all registered keys in lexical order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.nodeCodes))
	for k := range r.nodeCodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of registered node codes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodeCodes)
}

// CatalogNodes returns the catalog nodes contributed by every node code,
// in registration order.
func (r *Registry) CatalogNodes() []types.CatalogNode {
	var out []types.CatalogNode
	for _, n := range r.All() {
		for _, c := range n.CatalogNodes {
			if c.NodeCodeKey == "" {
				c.NodeCodeKey = n.Key
			}
			out = append(out, c)
		}
	}
	return out
}

// Execute merges the configuration layers and runs the node code.
// Declared keys missing from both layers are read from pc before defaults apply.
func (r *Registry) Execute(ctx context.Context, key string, catalogCfg, nodeCfg map[string]interface{}, pc *process.Context) (Result, error) {
	n, err := r.Get(key)
	if err != nil {
		return Result{}, err
	}

	cfg, err := Merge(catalogCfg, nodeCfg)
	if err != nil {
		return Result{}, err
	}
	cfg = cfg.FromContext(n.Configuration, pc).WithDefaults(n.Configuration)
	if err := cfg.CheckRequired(n.Configuration); err != nil {
		return Result{}, fmt.Errorf("node code %s: %w", key, err)
	}

	start := time.Now()
	res, err := n.Execute(ctx, cfg, pc)
	logging.EngineDebug("node code %s completed in %v (status=%s, success=%v)",
		key, time.Since(start), res.Status, err == nil)
	if err != nil {
		return res, fmt.Errorf("node code %s: %w", key, err)
	}
	return res, nil
}
