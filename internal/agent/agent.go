// Package agent turns a mission and a stimulus into a running process.
//
// Both controllers follow the same linear pipeline, with no loops and no
// retries:
//
//	THINK → EXTRACT → RESOLVE_OR_VALIDATE → EXECUTE → REPORT
//
// The select controller lets the brain pick a registered process; the
// synthesize controller lets it write a new one from the catalog. Extraction
// failures and brain failures are fatal errors. An unusable decision yields
// InsufficientProcessingFailure. Engine errors are returned unchanged.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"procagent/internal/brain"
	"procagent/internal/cognition"
	"procagent/internal/journal"
	"procagent/internal/logging"
	"procagent/internal/process"
	"procagent/internal/requirement"
	"procagent/internal/types"
	"procagent/internal/usage"
)

// Mode names a controller.
type Mode string

const (
	ModeSelect     Mode = "select"
	ModeSynthesize Mode = "synthesize"
)

// Agent performs missions.
type Agent interface {
	Perform(ctx context.Context, mission, stimulus string) (Result, error)
}

// Engine executes a process against a context.
type Engine interface {
	Process(ctx context.Context, p *types.Process, pc *process.Context) error
}

// Report describes one invocation in detail.
type Report struct {
	ID               string                 `json:"id"`
	Mode             Mode                   `json:"mode"`
	Result           Result                 `json:"-"`
	ResultName       string                 `json:"result"`
	ProcessKey       string                 `json:"process_key,omitempty"`
	Reason           string                 `json:"reason,omitempty"`
	ValidationErrors []string               `json:"validation_errors,omitempty"`
	Thinking         time.Duration          `json:"thinking_ns"`
	Processing       time.Duration          `json:"processing_ns"`
	Context          map[string]interface{} `json:"context,omitempty"`
}

// Option configures a controller.
type Option func(*base)

// WithJournal records every invocation in j.
func WithJournal(j journal.Recorder) Option {
	return func(b *base) { b.journal = j }
}

// WithUsage accounts the tokens of every brain call to t.
func WithUsage(t *usage.Tracker) Option {
	return func(b *base) { b.usage = t }
}

// WithIDGenerator replaces the invocation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(b *base) { b.newID = fn }
}

// base holds what both controllers share.
type base struct {
	mode    Mode
	brain   brain.Brain
	engine  Engine
	journal journal.Recorder
	usage   *usage.Tracker
	newID   func() string
}

func newBase(mode Mode, b brain.Brain, e Engine, opts []Option) base {
	out := base{mode: mode, brain: b, engine: e, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// invocation is the per-call state: timer, logger and the report being built.
type invocation struct {
	base     *base
	log      *logging.Logger
	timer    *logging.Timer
	report   *Report
	mission  string
	stimulus string
}

func (b *base) start(mission, stimulus string) *invocation {
	id := b.newID()
	inv := &invocation{
		base:     b,
		log:      logging.WithRequestID(logging.CategoryAgent, id),
		timer:    logging.StartTimer(logging.CategoryAgent, string(b.mode)),
		report:   &Report{ID: id, Mode: b.mode},
		mission:  mission,
		stimulus: stimulus,
	}
	inv.log.DebugEvent("process_agent_start", "mode", b.mode, "mission", mission, "stimulus", stimulus)
	return inv
}

// think calls the brain and extracts the decision. Any failure is fatal.
func (inv *invocation) think(ctx context.Context, prompt string) (*cognition.Payload, error) {
	if t := inv.base.usage; t != nil {
		ctx = usage.WithOperation(usage.NewContext(ctx, t), string(inv.base.mode))
	}
	thought := inv.base.brain.Think(ctx, prompt)
	if !thought.HasContent() {
		if thought.Err != "" {
			return nil, fmt.Errorf("%w: %s", ErrBrainFailure, thought.Err)
		}
		return nil, ErrBrainFailure
	}

	payload, err := cognition.Decode(thought.Content)
	if err != nil {
		logging.Get(logging.CategoryCognition).Debug("cognition failed: %v (reply_len=%d)", err, len(thought.Content))
		return nil, fmt.Errorf("%w: %w", ErrCognition, err)
	}
	inv.report.Reason = payload.ProcessReason
	inv.report.Thinking = inv.timer.Lap()
	return payload, nil
}

// execute builds a fresh context from the decision and runs p.
func (inv *invocation) execute(ctx context.Context, p *types.Process, payload *cognition.Payload) error {
	pc := process.NewContext()
	for _, key := range types.SortedKeys(payload.ProcessContext) {
		pc.Set(key, payload.ProcessContext[key])
	}
	err := inv.base.engine.Process(ctx, p, pc)
	inv.report.Processing = inv.timer.Lap()
	inv.report.Context = pc.Snapshot()
	return err
}

// finish logs telemetry, writes the journal and returns the result.
func (inv *invocation) finish(ctx context.Context, result Result, err error) (*Report, error) {
	r := inv.report
	r.Result = result
	r.ResultName = result.String()
	total := inv.timer.Elapsed()

	fields := []interface{}{
		"mode", r.Mode,
		"result", r.ResultName,
		"process", r.ProcessKey,
		"thinking_ms", r.Thinking.Milliseconds(),
		"processing_ms", r.Processing.Milliseconds(),
		"total_ms", total.Milliseconds(),
	}
	if err != nil {
		inv.log.Error("invocation failed: %v", err)
	}
	inv.log.Event("process_agent_end", fields...)

	if j := inv.base.journal; j != nil {
		entry := journal.Entry{
			ID:           r.ID,
			Mode:         string(r.Mode),
			Mission:      inv.mission,
			Stimulus:     inv.stimulus,
			ProcessKey:   r.ProcessKey,
			Reason:       r.Reason,
			Result:       r.ResultName,
			ThinkingMs:   r.Thinking.Milliseconds(),
			ProcessingMs: r.Processing.Milliseconds(),
		}
		if err != nil {
			entry.Error = err.Error()
		}
		// The journal must not change the outcome; use a context that
		// survives cancellation of the invocation.
		if jerr := j.Record(context.WithoutCancel(ctx), entry); jerr != nil {
			inv.log.Warn("journal record failed: %v", jerr)
		}
	}
	return r, err
}

// IsFatal reports whether err aborted an invocation before the engine ran.
func IsFatal(err error) bool {
	return errors.Is(err, ErrBrainFailure) || errors.Is(err, ErrCognition) ||
		errors.Is(err, process.ErrUnknownProcess) || errors.Is(err, process.ErrHydration) ||
		errors.Is(err, requirement.ErrUnknownCatalogNode) || errors.Is(err, requirement.ErrUnknownNodeCode)
}
