package main

import (
	"context"
	"errors"
	"fmt"

	"procagent/internal/agent"
	"procagent/internal/brain"
	"procagent/internal/catalog"
	"procagent/internal/config"
	"procagent/internal/engine"
	"procagent/internal/journal"
	"procagent/internal/logging"
	"procagent/internal/nodecode"
	"procagent/internal/process"
	"procagent/internal/prompt"
	"procagent/internal/requirement"
	"procagent/internal/usage"
)

// app is the composition root: everything is built once and passed by reference.
type app struct {
	cfg       *config.Config
	shapes    *nodecode.Shapes
	codes     *nodecode.Registry
	catalog   *catalog.Catalog
	validator *process.Validator
	processes *process.Registry
	engine    *engine.Engine
	policy    requirement.CollisionPolicy
	brain     brain.Brain
	journal   *journal.Store
	usage     *usage.Tracker
}

// newApp wires the registries. The brain and the journal are only opened
// when withBrain is set.
func newApp(ctx context.Context, cfg *config.Config, withBrain bool) (*app, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "wiring")
	defer timer.Stop()

	policy, err := requirement.ParsePolicy(cfg.Agent.CollisionPolicy)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, shapes: nodecode.NewShapes(), policy: policy}
	a.codes = nodecode.Builtin(a.shapes)
	a.catalog, err = catalog.Load(cfg.Catalog.Path, a.codes, a.shapes)
	if err != nil {
		return nil, err
	}
	a.validator = process.NewValidator(a.catalog)
	a.processes, err = process.LoadRegistry(ctx, cfg.Processes.Directory, a.validator)
	if err != nil {
		return nil, err
	}
	a.engine = engine.New(a.catalog, a.codes, engine.WithMaxSteps(cfg.Agent.MaxSteps))
	logging.Boot("catalog has %d nodes, %d processes registered", a.catalog.Len(), a.processes.Len())

	if !withBrain {
		return a, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.brain, err = brain.New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Journal.Enabled {
		a.journal, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Usage.Enabled {
		a.usage, err = usage.NewTracker(cfg.Usage.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.usage != nil {
		errs = append(errs, a.usage.Close())
	}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	return errors.Join(errs...)
}

func (a *app) resolvers() func() *requirement.Resolver {
	return requirement.Factory(a.catalog, a.codes, requirement.WithPolicy(a.policy))
}

func (a *app) renderer() *prompt.Renderer {
	return prompt.NewRenderer(a.catalog, a.codes)
}

// runner is what both controllers offer.
type runner interface {
	agent.Agent
	Run(ctx context.Context, mission, stimulus string) (*agent.Report, error)
}

func (a *app) agent(mode agent.Mode) (runner, error) {
	var opts []agent.Option
	if a.journal != nil {
		opts = append(opts, agent.WithJournal(a.journal))
	}
	if a.usage != nil {
		opts = append(opts, agent.WithUsage(a.usage))
	}
	switch mode {
	case agent.ModeSelect:
		return agent.NewSelectAgent(a.brain, a.processes, a.resolvers(), a.engine, opts...), nil
	case agent.ModeSynthesize:
		return agent.NewSynthesizeAgent(a.brain, a.renderer(), a.validator, a.engine, a.cfg.Agent.Instruction, opts...), nil
	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}
}
