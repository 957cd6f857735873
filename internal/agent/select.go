package agent

import (
	"context"
	"fmt"

	"procagent/internal/brain"
	"procagent/internal/prompt"
	"procagent/internal/requirement"
	"procagent/internal/types"
)

// SelectAgent asks the brain to pick one of the registered processes.
type SelectAgent struct {
	base
	processes types.ProcessSource
	resolvers func() *requirement.Resolver
}

// NewSelectAgent creates a select controller. resolvers must return a fresh
// resolver on every call; one is used per registered process per invocation.
func NewSelectAgent(b brain.Brain, processes types.ProcessSource, resolvers func() *requirement.Resolver, e Engine, opts ...Option) *SelectAgent {
	return &SelectAgent{
		base:      newBase(ModeSelect, b, e, opts),
		processes: processes,
		resolvers: resolvers,
	}
}

// Perform implements Agent.
func (a *SelectAgent) Perform(ctx context.Context, mission, stimulus string) (Result, error) {
	r, err := a.Run(ctx, mission, stimulus)
	return r.Result, err
}

// Run performs the mission and returns the full report.
func (a *SelectAgent) Run(ctx context.Context, mission, stimulus string) (*Report, error) {
	inv := a.start(mission, stimulus)

	metas, err := a.processMeta()
	if err != nil {
		return inv.finish(ctx, Failure, err)
	}
	text, err := prompt.Select(mission, stimulus, metas)
	if err != nil {
		return inv.finish(ctx, Failure, err)
	}

	payload, err := inv.think(ctx, text)
	if err != nil {
		return inv.finish(ctx, Failure, err)
	}
	if payload.IsEmptyKey() {
		inv.log.Info("brain selected no process")
		return inv.finish(ctx, InsufficientProcessingFailure, nil)
	}

	key := payload.KeyString()
	inv.report.ProcessKey = key
	p, err := a.processes.Build(key)
	if err != nil {
		return inv.finish(ctx, Failure, err)
	}
	inv.log.Info("brain selected process %s: %s", key, payload.ProcessReason)

	if err := inv.execute(ctx, p, payload); err != nil {
		return inv.finish(ctx, Failure, err)
	}
	return inv.finish(ctx, Success, nil)
}

// processMeta describes every registered process with its open configuration.
func (a *SelectAgent) processMeta() ([]prompt.ProcessMeta, error) {
	all := a.processes.All()
	metas := make([]prompt.ProcessMeta, 0, len(all))
	for _, p := range all {
		res, err := a.resolvers().WithProcess(p)
		if err != nil {
			return nil, fmt.Errorf("process %s: %w", p.Key, err)
		}
		reqs := res.Build()
		metas = append(metas, prompt.ProcessMeta{
			Key:         p.Key,
			Description: p.Description,
			Required:    reqs.Required,
			Optional:    reqs.Optional,
		})
	}
	return metas, nil
}
