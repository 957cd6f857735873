package process

import "procagent/internal/types"

const linearJSON = `{
  "schema_version": 1,
  "key": "linear",
  "version": 2,
  "description": "start to stop",
  "context": {"customer": "ABC123"},
  "nodes": [
    {"key": "start", "catalog_node_key": "start", "configuration": {}, "edges": {"ok": "stop"}},
    {"key": "stop", "catalog_node_key": "stop", "configuration": {}, "edges": {}}
  ]
}`

func linearProcess(key string) *types.Process {
	return &types.Process{
		SchemaVersion: types.SchemaVersion,
		Key:           key,
		Version:       1,
		Context:       map[string]interface{}{},
		Nodes: []types.ProcessNode{
			{Key: "start", CatalogNodeKey: "start", Configuration: map[string]interface{}{}, Edges: map[string]string{"ok": "stop"}},
			{Key: "stop", CatalogNodeKey: "stop", Configuration: map[string]interface{}{}, Edges: map[string]string{}},
		},
	}
}

type stubCatalog map[string]types.CatalogNode

func (s stubCatalog) GetCatalogNode(key string) (types.CatalogNode, error) {
	n, ok := s[key]
	if !ok {
		return types.CatalogNode{}, errUnknownStub
	}
	return n, nil
}

func (s stubCatalog) GetCatalogNodes() []types.CatalogNode {
	out := make([]types.CatalogNode, 0, len(s))
	for _, k := range types.SortedKeys(s) {
		out = append(out, s[k])
	}
	return out
}
