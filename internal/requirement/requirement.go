// Package requirement computes which configuration values a process, or a
// single catalog node, still needs from its caller.
//
// For every node the catalog entry and the node's own configuration are
// merged into the supplied set. Each descriptor the node code declares that
// is not supplied lands in Required (no default and not optional) or in
// Optional. A Resolver accumulates across calls until Init resets it, so a
// resolver must not be shared between concurrent invocations.
package requirement

import (
	"errors"
	"fmt"

	"procagent/internal/logging"
	"procagent/internal/nodecode"
	"procagent/internal/types"
)

var (
	// ErrUnknownCatalogNode means a process node references a missing catalog node.
	ErrUnknownCatalogNode = errors.New("unknown catalog node")
	// ErrUnknownNodeCode means a catalog node references a missing node code.
	ErrUnknownNodeCode = errors.New("unknown node code")
)

// CollisionPolicy decides where a key goes when several nodes of one process
// declare it with different optionality.
type CollisionPolicy int

const (
	// LastWins puts the key in the bucket chosen by the last node processed.
	LastWins CollisionPolicy = iota
	// StrictestWins keeps the key required once any node requires it.
	StrictestWins
)

// ParsePolicy maps a configuration name to a CollisionPolicy.
func ParsePolicy(name string) (CollisionPolicy, error) {
	switch name {
	case "", "last_wins":
		return LastWins, nil
	case "strictest_wins":
		return StrictestWins, nil
	default:
		return LastWins, fmt.Errorf("unknown collision policy %q", name)
	}
}

// String implements fmt.Stringer.
func (p CollisionPolicy) String() string {
	if p == StrictestWins {
		return "strictest_wins"
	}
	return "last_wins"
}

// Entry describes one configuration value a caller may or must supply.
type Entry struct {
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Default     interface{} `json:"default"`
}

// Requirements is the result of a resolution.
type Requirements struct {
	Required map[string]Entry `json:"required"`
	Optional map[string]Entry `json:"optional"`
}

// RequiredKeys returns the required keys in lexical order.
func (r Requirements) RequiredKeys() []string { return types.SortedKeys(r.Required) }

// OptionalKeys returns the optional keys in lexical order.
func (r Requirements) OptionalKeys() []string { return types.SortedKeys(r.Optional) }

// Option configures a Resolver.
type Option func(*Resolver)

// WithPolicy sets the collision policy.
func WithPolicy(p CollisionPolicy) Option {
	return func(r *Resolver) { r.policy = p }
}

// Resolver accumulates requirements over processes and nodes.
type Resolver struct {
	catalog   types.CatalogSource
	nodeCodes types.NodeCodeSource
	policy    CollisionPolicy
	subject   Requirements
}

// New creates a resolver with an empty subject.
func New(catalog types.CatalogSource, nodeCodes types.NodeCodeSource, opts ...Option) *Resolver {
	r := &Resolver{catalog: catalog, nodeCodes: nodeCodes}
	for _, opt := range opts {
		opt(r)
	}
	return r.Init()
}

// Factory returns a constructor producing fresh resolvers with the same
// collaborators, one per invocation.
func Factory(catalog types.CatalogSource, nodeCodes types.NodeCodeSource, opts ...Option) func() *Resolver {
	return func() *Resolver { return New(catalog, nodeCodes, opts...) }
}

// Init resets the accumulated requirements.
func (r *Resolver) Init() *Resolver {
	r.subject = Requirements{
		Required: make(map[string]Entry),
		Optional: make(map[string]Entry),
	}
	return r
}

// WithProcess adds the requirements of every node of p, in node order.
func (r *Resolver) WithProcess(p *types.Process) (*Resolver, error) {
	for _, n := range p.Nodes {
		if _, err := r.WithNode(n); err != nil {
			return r, err
		}
	}
	return r, nil
}

// WithNode adds the requirements of one process node.
func (r *Resolver) WithNode(n types.ProcessNode) (*Resolver, error) {
	cn, err := r.catalog.GetCatalogNode(n.CatalogNodeKey)
	if err != nil {
		return r, fmt.Errorf("%w: node %q references %q: %v", ErrUnknownCatalogNode, n.Key, n.CatalogNodeKey, err)
	}
	return r, r.add(cn, n.Configuration)
}

// WithCatalogNode adds the requirements of a catalog node in isolation.
func (r *Resolver) WithCatalogNode(cn types.CatalogNode) (*Resolver, error) {
	return r, r.add(cn, nil)
}

// Build returns the accumulated requirements.
func (r *Resolver) Build() Requirements {
	return r.subject
}

func (r *Resolver) add(cn types.CatalogNode, nodeCfg map[string]interface{}) error {
	descriptors, err := r.nodeCodes.Descriptors(cn.NodeCodeKey)
	if err != nil {
		return fmt.Errorf("%w: catalog node %q references %q: %v", ErrUnknownNodeCode, cn.Key, cn.NodeCodeKey, err)
	}

	supplied, err := nodecode.Merge(cn.Configuration, nodeCfg)
	if err != nil {
		return err
	}

	for _, d := range descriptors {
		if _, ok := supplied[d.Key]; ok {
			continue
		}
		r.bucket(d)
	}
	return nil
}

func (r *Resolver) bucket(d types.ConfigDescriptor) {
	entry := Entry{Key: d.Key, Name: d.Name, Description: d.Description, Default: d.Default}
	if entry.Default == nil {
		entry.Default = ""
	}

	required := d.IsRequired()
	_, wasRequired := r.subject.Required[d.Key]
	_, wasOptional := r.subject.Optional[d.Key]
	if (wasRequired && !required) || (wasOptional && required) {
		logging.Get(logging.CategoryCatalog).Debug("requirement collision on %q (policy=%s)", d.Key, r.policy)
	}

	switch {
	case required:
		delete(r.subject.Optional, d.Key)
		r.subject.Required[d.Key] = entry
	case r.policy == StrictestWins && wasRequired:
		// Keep the key required.
	default:
		delete(r.subject.Required, d.Key)
		r.subject.Optional[d.Key] = entry
	}
}
