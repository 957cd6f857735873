package process

import (
	"fmt"
	"sort"
	"sync"

	"procagent/internal/logging"
	"procagent/internal/types"
)

// Registry holds the registered processes. It is read concurrently by agent
// invocations and written only when the process directory is (re)loaded.
type Registry struct {
	mu        sync.RWMutex
	processes map[string]*types.Process
}

// NewRegistry creates a registry holding the given processes.
func NewRegistry(processes ...*types.Process) (*Registry, error) {
	r := &Registry{processes: make(map[string]*types.Process)}
	for _, p := range processes {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a process. Registering an existing key is an error.
func (r *Registry) Register(p *types.Process) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.processes[p.Key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProcess, p.Key)
	}
	r.processes[p.Key] = p
	return nil
}

// Replace swaps the whole set of processes atomically.
func (r *Registry) Replace(processes []*types.Process) error {
	next := make(map[string]*types.Process, len(processes))
	for _, p := range processes {
		if _, exists := next[p.Key]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateProcess, p.Key)
		}
		next[p.Key] = p
	}
	r.mu.Lock()
	r.processes = next
	r.mu.Unlock()
	logging.Process("registry replaced: %d processes", len(next))
	return nil
}

// Build returns a private copy of the process registered under key.
func (r *Registry) Build(key string) (*types.Process, error) {
	r.mu.RLock()
	p, ok := r.processes[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcess, key)
	}
	return Clone(p), nil
}

// All returns every registered process ordered by key.
func (r *Registry) All() []*types.Process {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Process, 0, len(r.processes))
	for _, p := range r.processes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of registered processes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.processes)
}
