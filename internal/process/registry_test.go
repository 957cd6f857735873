package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procagent/internal/types"
)

func TestRegistry_BuildReturnsCopy(t *testing.T) {
	r, err := NewRegistry(linearProcess("alpha"))
	require.NoError(t, err)

	p, err := r.Build("alpha")
	require.NoError(t, err)
	p.Context["mutated"] = true

	again, err := r.Build("alpha")
	require.NoError(t, err)
	assert.NotContains(t, again.Context, "mutated")
}

func TestRegistry_BuildIsolatesNestedContext(t *testing.T) {
	p := linearProcess("alpha")
	p.Context["customer"] = map[string]interface{}{"name": "a"}
	r, err := NewRegistry(p)
	require.NoError(t, err)

	built, err := r.Build("alpha")
	require.NoError(t, err)
	pc := NewContext()
	for k, v := range built.Context {
		pc.Set(k, v)
	}
	pc.Assign("customer.id", "first")

	again, err := r.Build("alpha")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "a"}, again.Context["customer"])
}

func TestRegistry_UnknownProcess(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.Build("missing")
	assert.ErrorIs(t, err, ErrUnknownProcess)
}

func TestRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(linearProcess("a"), linearProcess("a"))
	assert.ErrorIs(t, err, ErrDuplicateProcess)
}

func TestRegistry_AllSorted(t *testing.T) {
	r, err := NewRegistry(linearProcess("zeta"), linearProcess("alpha"), linearProcess("mid"))
	require.NoError(t, err)

	var keys []string
	for _, p := range r.All() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, keys)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_Replace(t *testing.T) {
	r, err := NewRegistry(linearProcess("old"))
	require.NoError(t, err)

	require.NoError(t, r.Replace([]*types.Process{linearProcess("new")}))
	_, err = r.Build("old")
	assert.ErrorIs(t, err, ErrUnknownProcess)
	_, err = r.Build("new")
	assert.NoError(t, err)

	err = r.Replace([]*types.Process{linearProcess("x"), linearProcess("x")})
	assert.ErrorIs(t, err, ErrDuplicateProcess)
	_, err = r.Build("new")
	assert.NoError(t, err, "failed replace keeps previous set")
}
