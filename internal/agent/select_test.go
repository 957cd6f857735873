package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procagent/internal/brain"
	"procagent/internal/cognition"
	"procagent/internal/journal"
	"procagent/internal/process"
	"procagent/internal/prompt"
	"procagent/internal/requirement"
	"procagent/internal/usage"
)

const importReply = `Looking at the available processes, the import one fits best.
{"process_key":"api_data_import","process_context":{"customer_id":"ABC123"},"process_reason":"matches import"}
Let me know if anything else is needed.`

func TestSelectAgent_Success(t *testing.T) {
	w := newWorld(t)
	b := brain.NewScriptedBrain(importReply)
	a := NewSelectAgent(b, w.processes, w.resolvers(), w.engine, fixedID("inv-1"))

	report, err := a.Run(context.Background(), "Import customer record", "nightly batch")
	require.NoError(t, err)
	assert.Equal(t, Success, report.Result)
	assert.Equal(t, "SUCCESS", report.ResultName)
	assert.Equal(t, "inv-1", report.ID)
	assert.Equal(t, ModeSelect, report.Mode)
	assert.Equal(t, "api_data_import", report.ProcessKey)
	assert.Equal(t, "matches import", report.Reason)
	assert.Equal(t, "ABC123", report.Context["customer_id"])
	assert.Equal(t, "ABC123", report.Context["imported"])

	require.Equal(t, 1, b.Calls())
	sent := b.Prompts()[0]
	assert.Contains(t, sent, prompt.SelectCommand)
	assert.Contains(t, sent, "Import customer record")
	assert.Contains(t, sent, "nightly batch")
	assert.Contains(t, sent, `"key":"api_data_import"`)
	assert.Contains(t, sent, `"required_context_values":{"customer_id"`)
	assert.Contains(t, sent, `"optional_context_values":{"endpoint"`)
}

func TestSelectAgent_BuildsFreshContext(t *testing.T) {
	w := newWorld(t)
	fe := &fakeEngine{}
	a := NewSelectAgent(brain.NewScriptedBrain(importReply), w.processes, w.resolvers(), fe)

	result, err := a.Perform(context.Background(), "Import customer record", "nightly batch")
	require.NoError(t, err)
	assert.Equal(t, Success, result)
	require.Equal(t, 1, fe.Calls())
	assert.Equal(t, []string{"api_data_import"}, fe.keys)
	assert.Equal(t, map[string]interface{}{"customer_id": "ABC123"}, fe.contexts[0])
}

func TestSelectAgent_Insufficient(t *testing.T) {
	replies := map[string]string{
		"empty string": `{"process_key":"","process_context":{}}`,
		"null":         `{"process_key":null,"process_context":{}}`,
		"absent":       `{"process_context":{},"process_reason":"nothing fits"}`,
		"empty object": `{"process_key":{},"process_context":[]}`,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			w := newWorld(t)
			fe := &fakeEngine{}
			a := NewSelectAgent(brain.NewScriptedBrain(reply), w.processes, w.resolvers(), fe)

			result, err := a.Perform(context.Background(), "mission", "stimulus")
			require.NoError(t, err)
			assert.Equal(t, InsufficientProcessingFailure, result)
			assert.Zero(t, fe.Calls())
		})
	}
}

func TestSelectAgent_ExtractionFailure(t *testing.T) {
	w := newWorld(t)
	fe := &fakeEngine{}
	a := NewSelectAgent(brain.NewScriptedBrain("I could not decide, sorry."), w.processes, w.resolvers(), fe)

	result, err := a.Perform(context.Background(), "mission", "stimulus")
	require.Error(t, err)
	assert.Equal(t, Failure, result)
	assert.ErrorIs(t, err, ErrCognition)
	assert.ErrorIs(t, err, cognition.ErrNoJSON)
	assert.True(t, IsFatal(err))
	assert.Zero(t, fe.Calls())
}

func TestSelectAgent_InvalidJSON(t *testing.T) {
	w := newWorld(t)
	fe := &fakeEngine{}
	a := NewSelectAgent(brain.NewScriptedBrain(`{"process_key": api_data_import}`), w.processes, w.resolvers(), fe)

	_, err := a.Perform(context.Background(), "mission", "stimulus")
	assert.ErrorIs(t, err, cognition.ErrInvalidJSON)
	assert.Zero(t, fe.Calls())
}

func TestSelectAgent_BrainFailure(t *testing.T) {
	w := newWorld(t)
	fe := &fakeEngine{}
	b := brain.NewScriptedThoughts(brain.Thought{Err: "upstream returned 503"})
	a := NewSelectAgent(b, w.processes, w.resolvers(), fe)

	result, err := a.Perform(context.Background(), "mission", "stimulus")
	assert.Equal(t, Failure, result)
	assert.ErrorIs(t, err, ErrBrainFailure)
	assert.Contains(t, err.Error(), "upstream returned 503")
	assert.Zero(t, fe.Calls())
}

func TestSelectAgent_UnknownProcess(t *testing.T) {
	w := newWorld(t)
	fe := &fakeEngine{}
	reply := `{"process_key":"does_not_exist","process_context":{}}`
	a := NewSelectAgent(brain.NewScriptedBrain(reply), w.processes, w.resolvers(), fe)

	report, err := a.Run(context.Background(), "mission", "stimulus")
	assert.Equal(t, Failure, report.Result)
	assert.ErrorIs(t, err, process.ErrUnknownProcess)
	assert.Equal(t, "does_not_exist", report.ProcessKey)
	assert.Zero(t, fe.Calls())
}

func TestSelectAgent_BrokenRegisteredProcess(t *testing.T) {
	w := newWorld(t)
	broken := noticeProcess()
	broken.Key = "broken"
	broken.Nodes[1].CatalogNodeKey = "teleport"
	require.NoError(t, w.processes.Register(broken))
	fe := &fakeEngine{}
	b := brain.NewScriptedBrain(`{"process_key":"notice","process_context":{}}`)
	a := NewSelectAgent(b, w.processes, w.resolvers(), fe)

	report, err := a.Run(context.Background(), "mission", "stimulus")
	assert.Equal(t, Failure, report.Result)
	assert.ErrorIs(t, err, requirement.ErrUnknownCatalogNode)
	assert.True(t, IsFatal(err))
	assert.Zero(t, fe.Calls())
}

func TestSelectAgent_EngineErrorUnchanged(t *testing.T) {
	w := newWorld(t)
	boom := errors.New("engine exploded")
	fe := &fakeEngine{err: boom}
	a := NewSelectAgent(brain.NewScriptedBrain(importReply), w.processes, w.resolvers(), fe)

	result, err := a.Perform(context.Background(), "mission", "stimulus")
	assert.Equal(t, Failure, result)
	assert.Same(t, boom, err)
	assert.False(t, IsFatal(err))
}

func TestSelectAgent_Journal(t *testing.T) {
	w := newWorld(t)
	j := &memJournal{}
	a := NewSelectAgent(brain.NewScriptedBrain(importReply), w.processes, w.resolvers(), &fakeEngine{},
		WithJournal(j), fixedID("inv-7"))

	_, err := a.Perform(context.Background(), "Import customer record", "nightly batch")
	require.NoError(t, err)

	entries := j.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "inv-7", entries[0].ID)
	assert.Equal(t, "select", entries[0].Mode)
	assert.Equal(t, "Import customer record", entries[0].Mission)
	assert.Equal(t, "nightly batch", entries[0].Stimulus)
	assert.Equal(t, "api_data_import", entries[0].ProcessKey)
	assert.Equal(t, "SUCCESS", entries[0].Result)
	assert.Empty(t, entries[0].Error)
}

func TestSelectAgent_JournalFailureIgnored(t *testing.T) {
	w := newWorld(t)
	j := &memJournal{err: errors.New("disk full")}
	a := NewSelectAgent(brain.NewScriptedBrain(importReply), w.processes, w.resolvers(), &fakeEngine{}, WithJournal(j))

	result, err := a.Perform(context.Background(), "mission", "stimulus")
	require.NoError(t, err)
	assert.Equal(t, Success, result)
}

func TestSelectAgent_SQLiteJournal(t *testing.T) {
	store, err := journal.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	w := newWorld(t)
	a := NewSelectAgent(brain.NewScriptedBrain("no decision"), w.processes, w.resolvers(), &fakeEngine{},
		WithJournal(store), fixedID("inv-9"))
	_, err = a.Perform(context.Background(), "mission", "stimulus")
	require.Error(t, err)

	entry, err := store.Get(context.Background(), "inv-9")
	require.NoError(t, err)
	assert.Equal(t, "FAILURE", entry.Result)
	assert.Contains(t, entry.Error, "no JSON")
}

func TestSelectAgent_Telemetry(t *testing.T) {
	logs := observe(t)
	w := newWorld(t)
	a := NewSelectAgent(brain.NewScriptedBrain(importReply), w.processes, w.resolvers(), &fakeEngine{}, fixedID("inv-3"))

	_, err := a.Perform(context.Background(), "mission", "stimulus")
	require.NoError(t, err)

	start := logs.FilterMessage("process_agent_start").All()
	require.Len(t, start, 1)
	assert.Equal(t, "inv-3", start[0].ContextMap()["req"])

	end := logs.FilterMessage("process_agent_end").All()
	require.Len(t, end, 1)
	fields := end[0].ContextMap()
	assert.Equal(t, "SUCCESS", fields["result"])
	assert.Equal(t, "api_data_import", fields["process"])
	assert.Contains(t, fields, "thinking_ms")
	assert.Contains(t, fields, "processing_ms")
	assert.Contains(t, fields, "total_ms")
}

func TestSelectAgent_Concurrent(t *testing.T) {
	w := newWorld(t)
	fe := &fakeEngine{}
	a := NewSelectAgent(brain.NewScriptedBrain(importReply), w.processes, w.resolvers(), fe)

	const n = 16
	var wg sync.WaitGroup
	results := make([]Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = a.Perform(context.Background(), fmt.Sprintf("mission %d", i), "load")
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, Success, results[i])
	}
	assert.Equal(t, n, fe.Calls())
	for _, c := range fe.contexts {
		assert.Equal(t, map[string]interface{}{"customer_id": "ABC123"}, c)
	}
}

func TestSelectAgent_CancelledContext(t *testing.T) {
	w := newWorld(t)
	fe := &fakeEngine{}
	a := NewSelectAgent(brain.NewScriptedBrain(importReply), w.processes, w.resolvers(), fe)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Perform(ctx, "mission", "stimulus")
	assert.ErrorIs(t, err, ErrBrainFailure)
	assert.Zero(t, fe.Calls())
}

func TestSelectAgent_UsageContext(t *testing.T) {
	tracker, err := usage.NewTracker(filepath.Join(t.TempDir(), "usage.json"))
	require.NoError(t, err)
	defer tracker.Close()

	b := brain.Func(func(ctx context.Context, prompt string) brain.Thought {
		usage.Track(ctx, "test", "m1", 10, 2)
		return brain.Thought{Content: importReply}
	})
	w := newWorld(t)
	a := NewSelectAgent(b, w.processes, w.resolvers(), &fakeEngine{}, WithUsage(tracker))

	_, err = a.Perform(context.Background(), "mission", "stimulus")
	require.NoError(t, err)
	assert.EqualValues(t, 12, tracker.Stats().ByOperation["select"].Total)
}
