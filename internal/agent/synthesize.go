package agent

import (
	"context"

	"procagent/internal/brain"
	"procagent/internal/process"
	"procagent/internal/prompt"
	"procagent/internal/types"
)

// Renderer renders the catalog for the brain.
type Renderer interface {
	Render(instruction string) (string, error)
}

// Validator checks a synthesized process; an empty result means valid.
type Validator interface {
	Validate(p *types.Process) []string
}

// SynthesizeAgent asks the brain to write a new process from the catalog.
type SynthesizeAgent struct {
	base
	renderer    Renderer
	validator   Validator
	instruction string
}

// NewSynthesizeAgent creates a synthesize controller. instruction is passed to
// the renderer and may be empty.
func NewSynthesizeAgent(b brain.Brain, renderer Renderer, validator Validator, e Engine, instruction string, opts ...Option) *SynthesizeAgent {
	return &SynthesizeAgent{
		base:        newBase(ModeSynthesize, b, e, opts),
		renderer:    renderer,
		validator:   validator,
		instruction: instruction,
	}
}

// Perform implements Agent.
func (a *SynthesizeAgent) Perform(ctx context.Context, mission, stimulus string) (Result, error) {
	r, err := a.Run(ctx, mission, stimulus)
	return r.Result, err
}

// Run performs the mission and returns the full report.
func (a *SynthesizeAgent) Run(ctx context.Context, mission, stimulus string) (*Report, error) {
	inv := a.start(mission, stimulus)

	builder, err := a.renderer.Render(a.instruction)
	if err != nil {
		return inv.finish(ctx, Failure, err)
	}
	text, err := prompt.Synthesize(mission, stimulus, builder)
	if err != nil {
		return inv.finish(ctx, Failure, err)
	}

	payload, err := inv.think(ctx, text)
	if err != nil {
		return inv.finish(ctx, Failure, err)
	}
	if payload.IsEmptyKey() {
		inv.log.Info("brain built no process")
		return inv.finish(ctx, InsufficientProcessingFailure, nil)
	}

	p, err := process.Hydrate(payload.Document())
	if err != nil {
		return inv.finish(ctx, Failure, err)
	}
	inv.report.ProcessKey = p.Key

	if errs := a.validator.Validate(p); len(errs) > 0 {
		inv.report.ValidationErrors = errs
		inv.log.Warn("synthesized process %s is invalid: %v", p.Key, errs)
		return inv.finish(ctx, InsufficientProcessingFailure, nil)
	}
	inv.log.Info("brain built process %s: %s", p.Key, payload.ProcessReason)

	if err := inv.execute(ctx, p, payload); err != nil {
		return inv.finish(ctx, Failure, err)
	}
	return inv.finish(ctx, Success, nil)
}
