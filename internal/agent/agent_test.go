package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"procagent/internal/catalog"
	"procagent/internal/engine"
	"procagent/internal/journal"
	"procagent/internal/logging"
	"procagent/internal/nodecode"
	"procagent/internal/process"
	"procagent/internal/requirement"
	"procagent/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// world is the composition root shared by the controller tests.
type world struct {
	catalog   *catalog.Catalog
	codes     *nodecode.Registry
	processes *process.Registry
	engine    *engine.Engine
}

func newWorld(t *testing.T) *world {
	t.Helper()
	codes := nodecode.Builtin(nil)
	codes.MustRegister(&nodecode.NodeCode{
		Key:         "api_import",
		Name:        "API Import",
		Description: "Import a record from the customer API.",
		Configuration: []types.ConfigDescriptor{
			{Key: "customer_id", Name: "Customer", Description: "The customer to import."},
			{Key: "endpoint", Name: "Endpoint", Description: "The API base URL.", Default: "https://api.example.com"},
		},
		Results: []types.ResultDescription{{Code: types.ResultOK, Description: "The record was imported."}},
		Execute: func(ctx context.Context, cfg nodecode.Config, pc *process.Context) (nodecode.Result, error) {
			pc.Set("imported", cfg.String("customer_id"))
			return nodecode.Result{Status: types.ResultOK}, nil
		},
	})
	cat := catalog.New(codes.CatalogNodes()...)
	cat.Put(types.CatalogNode{Key: "api_import", Name: "API Import", NodeCodeKey: "api_import"})

	processes, err := process.NewRegistry(importProcess(), noticeProcess())
	require.NoError(t, err)

	return &world{catalog: cat, codes: codes, processes: processes, engine: engine.New(cat, codes)}
}

func (w *world) resolvers() func() *requirement.Resolver {
	return requirement.Factory(w.catalog, w.codes)
}

func importProcess() *types.Process {
	return &types.Process{
		SchemaVersion: types.SchemaVersion,
		Key:           "api_data_import",
		Version:       1,
		Description:   "Import one customer record from the API.",
		Context:       map[string]interface{}{},
		Nodes: []types.ProcessNode{
			{Key: "start", CatalogNodeKey: "start", Edges: map[string]string{"ok": "import"}},
			{Key: "import", CatalogNodeKey: "api_import", Edges: map[string]string{"ok": "stop"}},
			{Key: "stop", CatalogNodeKey: "stop", Edges: map[string]string{}},
		},
	}
}

func noticeProcess() *types.Process {
	return &types.Process{
		SchemaVersion: types.SchemaVersion,
		Key:           "notice",
		Version:       1,
		Description:   "Record a notice in the context.",
		Context:       map[string]interface{}{},
		Nodes: []types.ProcessNode{
			{Key: "start", CatalogNodeKey: "start", Edges: map[string]string{"ok": "set"}},
			{Key: "set", CatalogNodeKey: "context_set", Configuration: map[string]interface{}{"context_path": "notice"}, Edges: map[string]string{"ok": "stop"}},
			{Key: "stop", CatalogNodeKey: "stop", Edges: map[string]string{}},
		},
	}
}

// fakeEngine records what it was asked to run.
type fakeEngine struct {
	mu       sync.Mutex
	err      error
	calls    int
	keys     []string
	contexts []map[string]interface{}
}

func (f *fakeEngine) Process(ctx context.Context, p *types.Process, pc *process.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.keys = append(f.keys, p.Key)
	f.contexts = append(f.contexts, pc.Snapshot())
	return f.err
}

func (f *fakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memJournal keeps entries in memory.
type memJournal struct {
	mu      sync.Mutex
	err     error
	entries []journal.Entry
}

func (m *memJournal) Record(ctx context.Context, e journal.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memJournal) Entries() []journal.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]journal.Entry(nil), m.entries...)
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logging.UseLogger(zap.New(core))
	t.Cleanup(func() { logging.UseLogger(zap.NewNop()) })
	return logs
}

func fixedID(id string) Option {
	return WithIDGenerator(func() string { return id })
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "SUCCESS", Success.String())
	assert.Equal(t, "FAILURE", Failure.String())
	assert.Equal(t, "INSUFFICIENT_PROCESSING_FAILURE", InsufficientProcessingFailure.String())
}

func TestResult_ExitCode(t *testing.T) {
	assert.Equal(t, 0, Success.ExitCode())
	assert.Equal(t, 1, Failure.ExitCode())
	assert.Equal(t, 2, InsufficientProcessingFailure.ExitCode())
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrBrainFailure))
	assert.True(t, IsFatal(errors.Join(ErrCognition, errors.New("x"))))
	assert.True(t, IsFatal(process.ErrUnknownProcess))
	assert.True(t, IsFatal(fmt.Errorf("process p: %w", requirement.ErrUnknownCatalogNode)))
	assert.True(t, IsFatal(requirement.ErrUnknownNodeCode))
	assert.False(t, IsFatal(errors.New("engine exploded")))
	assert.False(t, IsFatal(nil))
}
