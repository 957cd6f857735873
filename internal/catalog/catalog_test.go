package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procagent/internal/nodecode"
	"procagent/internal/types"
)

const catalogYAML = `version: 1
nodes:
  - key: report_to_html
    name: Report to HTML
    group: Data
    description: Convert the report markdown to HTML.
    node_code_key: convert_html
    configuration:
      input_context_path: report
  - key: stop
    name: Finish
    description: End the process.
    node_code_key: stop
shapes:
  - key: invoice
    fields:
      - name: customer
        type: string
        description: Customer name
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCatalog_OrderAndReplace(t *testing.T) {
	c := New(
		types.CatalogNode{Key: "a", Name: "A"},
		types.CatalogNode{Key: "b", Name: "B"},
		types.CatalogNode{Key: "a", Name: "A2"},
	)
	nodes := c.GetCatalogNodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].Key)
	assert.Equal(t, "A2", nodes[0].Name)
	assert.Equal(t, "b", nodes[1].Key)
}

func TestCatalog_Unknown(t *testing.T) {
	_, err := New().GetCatalogNode("ghost")
	assert.ErrorIs(t, err, ErrUnknownCatalogNode)
}

func TestLoad(t *testing.T) {
	codes := nodecode.Builtin(nil)
	shapes := nodecode.NewShapes()

	c, err := Load(writeCatalog(t, catalogYAML), codes, shapes)
	require.NoError(t, err)

	n, err := c.GetCatalogNode("report_to_html")
	require.NoError(t, err)
	assert.Equal(t, "convert_html", n.NodeCodeKey)
	assert.Equal(t, "report", n.Configuration["input_context_path"])

	stop, err := c.GetCatalogNode("stop")
	require.NoError(t, err)
	assert.Equal(t, "Finish", stop.Name)

	nodes := c.GetCatalogNodes()
	assert.Equal(t, "start", nodes[0].Key)
	assert.Equal(t, "report_to_html", nodes[len(nodes)-1].Key)

	_, err = shapes.Get("invoice")
	assert.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	codes := nodecode.Builtin(nil)
	c, err := Load(filepath.Join(t.TempDir(), "none.yaml"), codes, nil)
	require.NoError(t, err)
	assert.Equal(t, len(codes.CatalogNodes()), c.Len())
}

func TestLoad_UnknownNodeCode(t *testing.T) {
	path := writeCatalog(t, "nodes:\n  - key: x\n    node_code_key: teleport\n")
	_, err := Load(path, nodecode.Builtin(nil), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown node code "teleport"`)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeCatalog(t, "nodes: [\n"), nodecode.Builtin(nil), nil)
	assert.Error(t, err)
}
