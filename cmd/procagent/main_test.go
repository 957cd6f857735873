package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noticeProcess = `{
  "schema_version": 1,
  "key": "notice",
  "version": 1,
  "description": "Store a notice in the context.",
  "context": {},
  "nodes": [
    {"key": "start", "catalog_node_key": "start", "edges": {"ok": "set"}},
    {"key": "set", "catalog_node_key": "set_notice", "edges": {"ok": "stop"}},
    {"key": "stop", "catalog_node_key": "stop", "edges": {}}
  ]
}`

const catalogFile = `version: 1
nodes:
  - key: set_notice
    name: Set Notice
    description: Store the value at the notice path.
    node_code_key: context_set
    configuration:
      context_path: notice
`

// workspace writes a config using the scripted brain and returns its path.
func workspace(t *testing.T, replies ...string) string {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "PROCAGENT_API_KEY", "PROCAGENT_JOURNAL"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	procDir := filepath.Join(dir, "processes")
	require.NoError(t, os.Mkdir(procDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(procDir, "notice.json"), []byte(noticeProcess), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(catalogFile), 0644))

	var quoted []string
	for _, r := range replies {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		quoted = append(quoted, "    - "+string(data))
	}
	cfgText := fmt.Sprintf(`brain:
  provider: scripted
  replies:
%s
catalog:
  path: %s
processes:
  directory: %s
journal:
  enabled: true
  path: %s
logging:
  level: error
`, strings.Join(quoted, "\n"), filepath.Join(dir, "catalog.yaml"), procDir, filepath.Join(dir, "journal.db"))
	path := filepath.Join(dir, "procagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfgText), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	performMode, performMission, performStimulus = "", "", ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPerform_Success(t *testing.T) {
	cfgFile := workspace(t, `Sure. {"process_key":"notice","process_context":{"value":"hi"},"process_reason":"fits"}`)

	out, err := execute(t, "perform", "-c", cfgFile, "--mission", "Post a notice", "--stimulus", "test")
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "SUCCESS", report["result"])
	assert.Equal(t, "notice", report["process_key"])
	assert.Equal(t, map[string]interface{}{"value": "hi", "notice": "hi"}, report["context"])
}

func TestPerform_Insufficient(t *testing.T) {
	cfgFile := workspace(t, `{"process_key":"","process_context":{}}`)

	out, err := execute(t, "perform", "-c", cfgFile, "--mission", "Post a notice")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, out, "INSUFFICIENT_PROCESSING_FAILURE")
}

func TestPerform_Fatal(t *testing.T) {
	cfgFile := workspace(t, "no json here")

	_, err := execute(t, "perform", "-c", cfgFile, "--mission", "Post a notice")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, err.Error(), "no JSON")
}

func TestBatch(t *testing.T) {
	cfgFile := workspace(t, `{"process_key":"notice","process_context":{"value":"x"}}`)
	batch := filepath.Join(filepath.Dir(cfgFile), "batch.yaml")
	require.NoError(t, os.WriteFile(batch, []byte(`missions:
  - mission: one
  - mission: two
    stimulus: later
  - mission: three
`), 0644))

	out, err := execute(t, "batch", "-c", cfgFile, batch)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		var l batchLine
		require.NoError(t, json.Unmarshal([]byte(line), &l))
		assert.Equal(t, i, l.Index)
		assert.Empty(t, l.Error)
		assert.Equal(t, "SUCCESS", l.Report.ResultName)
	}
}

func TestBatch_MissingMission(t *testing.T) {
	cfgFile := workspace(t, "{}")
	batch := filepath.Join(filepath.Dir(cfgFile), "batch.yaml")
	require.NoError(t, os.WriteFile(batch, []byte("missions:\n  - stimulus: orphan\n"), 0644))

	_, err := execute(t, "batch", "-c", cfgFile, batch)
	assert.ErrorContains(t, err, "no mission")
}

func TestPrompt(t *testing.T) {
	cfgFile := workspace(t)

	out, err := execute(t, "prompt", "-c", cfgFile, "keep it short")
	require.NoError(t, err)
	assert.Contains(t, out, "Write a process with the following instruction: keep it short")
	assert.Contains(t, out, "Catalog Node 'set_notice' - Set Notice")
	assert.Contains(t, out, "Catalog Node Provided Configuration:")
}

func TestProcesses(t *testing.T) {
	cfgFile := workspace(t)

	out, err := execute(t, "processes", "-c", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "notice (v1) - Store a notice in the context.")
	assert.Contains(t, out, "required: value")
}

func TestValidate(t *testing.T) {
	cfgFile := workspace(t)
	dir := filepath.Dir(cfgFile)
	good := filepath.Join(dir, "processes", "notice.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"schema_version":1,"key":"bad","version":1,"context":{},
		"nodes":[{"key":"start","catalog_node_key":"start","edges":{"ok":"stop"}},{"key":"stop","catalog_node_key":"stop","edges":{"ok":"start"}}]}`), 0644))

	out, err := execute(t, "validate", "-c", cfgFile, good)
	require.NoError(t, err)
	assert.Contains(t, out, good+": ok")

	out, err = execute(t, "validate", "-c", cfgFile, good, bad)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, out, `stop node "stop" must not have edges`)
}
