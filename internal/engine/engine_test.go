package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procagent/internal/catalog"
	"procagent/internal/nodecode"
	"procagent/internal/process"
	"procagent/internal/types"
)

func setup(t *testing.T) (*catalog.Catalog, *nodecode.Registry) {
	t.Helper()
	codes := nodecode.Builtin(nil)
	codes.MustRegister(&nodecode.NodeCode{
		Key: "branch",
		Execute: func(ctx context.Context, cfg nodecode.Config, pc *process.Context) (nodecode.Result, error) {
			v, _ := pc.LookupString("flag")
			return nodecode.Result{Status: v}, nil
		},
	})
	codes.MustRegister(&nodecode.NodeCode{
		Key: "explode",
		Execute: func(ctx context.Context, cfg nodecode.Config, pc *process.Context) (nodecode.Result, error) {
			return nodecode.Result{Status: types.ResultError}, errors.New("kaboom")
		},
	})
	cat := catalog.New(codes.CatalogNodes()...)
	cat.Put(types.CatalogNode{Key: "branch", NodeCodeKey: "branch"})
	cat.Put(types.CatalogNode{Key: "explode", NodeCodeKey: "explode"})
	cat.Put(types.CatalogNode{Key: "set_greeting", NodeCodeKey: "context_set",
		Configuration: map[string]interface{}{"context_path": "greeting"}})
	return cat, codes
}

func node(key, catalogKey string, edges map[string]string, cfg map[string]interface{}) types.ProcessNode {
	if edges == nil {
		edges = map[string]string{}
	}
	return types.ProcessNode{Key: key, CatalogNodeKey: catalogKey, Edges: edges, Configuration: cfg}
}

func TestEngine_Linear(t *testing.T) {
	cat, codes := setup(t)
	var steps []string
	e := New(cat, codes, WithObserver(func(s Step) { steps = append(steps, s.NodeKey+":"+s.Status) }))

	p := &types.Process{Key: "greet", Context: map[string]interface{}{"seed": 1, "who": "default"}, Nodes: []types.ProcessNode{
		node("start", "start", map[string]string{"ok": "set"}, nil),
		node("set", "set_greeting", map[string]string{"ok": "stop"}, map[string]interface{}{"value": "hello"}),
		node("stop", "stop", nil, nil),
	}}
	pc := process.NewContext()
	pc.Set("who", "caller")

	require.NoError(t, e.Process(context.Background(), p, pc))
	assert.Equal(t, []string{"start:ok", "set:ok", "stop:ok"}, steps)

	greeting, _ := pc.Get("greeting")
	assert.Equal(t, "hello", greeting)
	seed, _ := pc.Get("seed")
	assert.Equal(t, 1, seed)
	who, _ := pc.Get("who")
	assert.Equal(t, "caller", who, "invocation context wins over process context")
}

func TestEngine_Branching(t *testing.T) {
	cat, codes := setup(t)
	p := &types.Process{Key: "b", Nodes: []types.ProcessNode{
		node("start", "start", map[string]string{"ok": "decide"}, nil),
		node("decide", "branch", map[string]string{"true": "yes", "false": "stop"}, nil),
		node("yes", "set_greeting", map[string]string{"ok": "stop"}, map[string]interface{}{"value": "took yes"}),
		node("stop", "stop", nil, nil),
	}}

	pc := process.NewContext()
	pc.Set("flag", "true")
	require.NoError(t, New(cat, codes).Process(context.Background(), p, pc))
	assert.True(t, pc.Has("greeting"))

	pc = process.NewContext()
	pc.Set("flag", "false")
	require.NoError(t, New(cat, codes).Process(context.Background(), p, pc))
	assert.False(t, pc.Has("greeting"))

	pc = process.NewContext()
	pc.Set("flag", "maybe")
	err := New(cat, codes).Process(context.Background(), p, pc)
	assert.ErrorIs(t, err, ErrNoEdge)
}

func TestEngine_Errors(t *testing.T) {
	cat, codes := setup(t)
	tests := []struct {
		name    string
		nodes   []types.ProcessNode
		wantErr error
	}{
		{
			name:    "no start",
			nodes:   []types.ProcessNode{node("stop", "stop", nil, nil)},
			wantErr: ErrNoStart,
		},
		{
			name:    "dangling edge",
			nodes:   []types.ProcessNode{node("start", "start", map[string]string{"ok": "ghost"}, nil)},
			wantErr: ErrUnknownNode,
		},
		{
			name: "loop",
			nodes: []types.ProcessNode{
				node("start", "start", map[string]string{"ok": "again"}, nil),
				node("again", "noop", map[string]string{"ok": "again"}, nil),
			},
			wantErr: ErrMaxSteps,
		},
		{
			name: "unknown catalog node",
			nodes: []types.ProcessNode{
				node("start", "start", map[string]string{"ok": "x"}, nil),
				node("x", "ghost", map[string]string{"ok": "start"}, nil),
			},
			wantErr: catalog.ErrUnknownCatalogNode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(cat, codes, WithMaxSteps(10)).Process(context.Background(), &types.Process{Key: "p", Nodes: tt.nodes}, process.NewContext())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEngine_NodeFailure(t *testing.T) {
	cat, codes := setup(t)
	p := &types.Process{Key: "f", Nodes: []types.ProcessNode{
		node("start", "start", map[string]string{"ok": "boom"}, nil),
		node("boom", "explode", map[string]string{"ok": "stop", "error": "stop"}, nil),
		node("stop", "stop", nil, nil),
	}}
	err := New(cat, codes).Process(context.Background(), p, process.NewContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestEngine_Cancelled(t *testing.T) {
	cat, codes := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &types.Process{Key: "c", Nodes: []types.ProcessNode{node("start", "start", nil, nil)}}
	assert.ErrorIs(t, New(cat, codes).Process(ctx, p, process.NewContext()), context.Canceled)
}

func TestEngine_RegisteredProcessStaysClean(t *testing.T) {
	cat, codes := setup(t)
	reg, err := process.NewRegistry(&types.Process{
		Key:     "p",
		Context: map[string]interface{}{"customer": map[string]interface{}{"name": "a"}},
		Nodes: []types.ProcessNode{
			node("start", "start", map[string]string{"ok": "set"}, nil),
			node("set", "context_set", map[string]string{"ok": "stop"},
				map[string]interface{}{"context_path": "customer.id", "value": "first"}),
			node("stop", "stop", nil, nil),
		},
	})
	require.NoError(t, err)
	e := New(cat, codes)

	p, err := reg.Build("p")
	require.NoError(t, err)
	pc := process.NewContext()
	require.NoError(t, e.Process(context.Background(), p, pc))

	id, ok := pc.LookupString("customer.id")
	require.True(t, ok)
	assert.Equal(t, "first", id)
	assert.Equal(t, map[string]interface{}{"name": "a"}, p.Context["customer"])

	again, err := reg.Build("p")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "a"}, again.Context["customer"])

	next := process.NewContext()
	require.NoError(t, e.Process(context.Background(), again, next))
	seeded, _ := next.Get("customer")
	assert.Equal(t, map[string]interface{}{"name": "a", "id": "first"}, seeded)
	assert.Equal(t, map[string]interface{}{"name": "a", "id": "first"}, mustGet(t, pc, "customer"),
		"a second run does not touch the first context")
}

func mustGet(t *testing.T, pc *process.Context, key string) interface{} {
	t.Helper()
	v, ok := pc.Get(key)
	require.True(t, ok)
	return v
}
