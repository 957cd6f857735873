// Package engine runs processes: it walks the node graph from the start node,
// running each node's code and following the edge named by its result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procagent/internal/logging"
	"procagent/internal/nodecode"
	"procagent/internal/process"
	"procagent/internal/types"
)

var (
	// ErrNoStart means the process has no start node.
	ErrNoStart = errors.New("process has no start node")
	// ErrUnknownNode means an edge points at a node the process does not have.
	ErrUnknownNode = errors.New("unknown process node")
	// ErrNoEdge means a node returned a status its edges do not map.
	ErrNoEdge = errors.New("no edge for result")
	// ErrMaxSteps means the walk exceeded the configured number of steps.
	ErrMaxSteps = errors.New("maximum steps exceeded")
)

// DefaultMaxSteps bounds a walk when no limit is configured.
const DefaultMaxSteps = 1000

// Step records one node execution.
type Step struct {
	NodeKey  string
	Status   string
	Message  string
	Duration time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxSteps sets the step limit.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithObserver registers a callback invoked after every step.
func WithObserver(fn func(Step)) Option {
	return func(e *Engine) { e.observers = append(e.observers, fn) }
}

// Engine executes processes sequentially. It holds no per-run state and is
// safe for concurrent use.
type Engine struct {
	catalog   types.CatalogSource
	nodeCodes *nodecode.Registry
	maxSteps  int
	observers []func(Step)
}

// New creates an engine.
func New(catalog types.CatalogSource, nodeCodes *nodecode.Registry, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, nodeCodes: nodeCodes, maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process runs p against pc. Values of the process context are deep-copied
// into pc unless pc already holds the key, so nodes never write into p. The walk ends at the first node
// without edges.
func (e *Engine) Process(ctx context.Context, p *types.Process, pc *process.Context) error {
	for k, v := range p.Context {
		if !pc.Has(k) {
			pc.Set(k, process.CopyValue(v))
		}
	}

	node, ok := p.Node(types.StartKey)
	if !ok {
		return fmt.Errorf("%s: %w", p.Key, ErrNoStart)
	}

	timer := logging.StartTimer(logging.CategoryEngine, "process "+p.Key)
	defer timer.Stop()

	for steps := 1; ; steps++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if steps > e.maxSteps {
			return fmt.Errorf("%s: %w (%d)", p.Key, ErrMaxSteps, e.maxSteps)
		}

		step, err := e.run(ctx, node, pc)
		for _, fn := range e.observers {
			fn(step)
		}
		if err != nil {
			return fmt.Errorf("%s: node %q: %w", p.Key, node.Key, err)
		}

		if len(node.Edges) == 0 {
			logging.EngineDebug("process %s finished at %q after %d steps", p.Key, node.Key, steps)
			return nil
		}
		nextKey, ok := node.Edges[step.Status]
		if !ok {
			return fmt.Errorf("%s: node %q: %w %q", p.Key, node.Key, ErrNoEdge, step.Status)
		}
		next, ok := p.Node(nextKey)
		if !ok {
			return fmt.Errorf("%s: node %q: %w %q", p.Key, node.Key, ErrUnknownNode, nextKey)
		}
		node = next
	}
}

func (e *Engine) run(ctx context.Context, node types.ProcessNode, pc *process.Context) (Step, error) {
	start := time.Now()
	step := Step{NodeKey: node.Key}

	cn, err := e.catalog.GetCatalogNode(node.CatalogNodeKey)
	if err != nil {
		step.Status = types.ResultError
		return step, err
	}

	res, err := e.nodeCodes.Execute(ctx, cn.NodeCodeKey, cn.Configuration, node.Configuration, pc)
	step.Status = res.Status
	step.Message = res.Message
	step.Duration = time.Since(start)
	logging.EngineDebug("node %s (%s): %s %s", node.Key, cn.NodeCodeKey, res.Status, res.Message)
	return step, err
}
