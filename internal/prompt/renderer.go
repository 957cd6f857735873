// Package prompt builds the text sent to a brain: the catalog description
// used to synthesize processes and the sectioned prompts of the agents.
package prompt

import (
	"fmt"
	"strings"

	"procagent/internal/requirement"
	"procagent/internal/types"
)

const preamble = `Write a process configuration using a set of catalog nodes as compute
process nodes. A process is a JSON configuration that requires the 'schema_version'
property, a unique process 'key', the version of the process configuration, any
input context data in an object, and an array of nodes.

{
   "schema_version": 1,
   "key": "ask_support",
   "version": 1,
   "context": {},
   "nodes": [
      // ...put nodes here...
   ]
}

`

const configGuide = `A process configuration contains an array of nodes. Each node requires a 'key' property
that identifies it and must be unique. The node must also reference a catalog key with
the 'catalog_node_key' property. If any additional configuration is required then a
key value object will be added to the 'configuration' property. The configuration property
is optional unless there are required configuration from the catalog node. Each node must
include an 'edges' property that maps the result code of the node to the next node's key. The
'description' property describes the purpose of the node and is optional.

All process configurations must start with the 'start' node. The edge of the start node will map
the "ok" result with the next node to process. Here is an example:

 {
    "key": "start",
    "description": "The starting node",
    "catalog_node_key": "start",
    "configuration": {},
    "edges": {
      "ok": "next_node_key"
    }
 }

All process configurations must end with the stop node. Here is an example:

 {
    "key": "stop",
    "description": "Stop",
    "catalog_node_key": "stop",
    "configuration": {},
    "edges": {}
 }
`

// Renderer describes the catalog to a brain that has to build a process.
type Renderer struct {
	catalog   types.CatalogSource
	nodeCodes types.NodeCodeSource
}

// NewRenderer creates a renderer over a catalog and its node codes.
func NewRenderer(catalog types.CatalogSource, nodeCodes types.NodeCodeSource) *Renderer {
	return &Renderer{catalog: catalog, nodeCodes: nodeCodes}
}

// Render produces the process builder instructions. When instruction is not
// empty it is added after the schema preamble.
//
// Every catalog node is rendered in catalog order as a header followed by the
// sections Required Configuration, Optional Configuration, Catalog Node
// Provided Configuration and Results. Empty sections are left out.
func (r *Renderer) Render(instruction string) (string, error) {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n")
	if instruction != "" {
		fmt.Fprintf(&b, "Write a process with the following instruction: %s\n\n\n", instruction)
	}
	b.WriteString(configGuide)
	b.WriteString("\n")

	for _, cn := range r.catalog.GetCatalogNodes() {
		if err := r.renderNode(&b, cn); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (r *Renderer) renderNode(b *strings.Builder, cn types.CatalogNode) error {
	descriptors, err := r.nodeCodes.Descriptors(cn.NodeCodeKey)
	if err != nil {
		return fmt.Errorf("%w: catalog node %q references %q: %v", requirement.ErrUnknownNodeCode, cn.Key, cn.NodeCodeKey, err)
	}
	results, err := r.nodeCodes.Results(cn.NodeCodeKey)
	if err != nil {
		return fmt.Errorf("%w: catalog node %q references %q: %v", requirement.ErrUnknownNodeCode, cn.Key, cn.NodeCodeKey, err)
	}

	res, err := requirement.New(r.catalog, r.nodeCodes).WithCatalogNode(cn)
	if err != nil {
		return err
	}
	reqs := res.Build()

	var required, optional, provided []types.ConfigDescriptor
	for _, d := range descriptors {
		if _, ok := cn.Configuration[d.Key]; ok {
			provided = append(provided, d)
			continue
		}
		if _, ok := reqs.Required[d.Key]; ok {
			required = append(required, d)
		} else if _, ok := reqs.Optional[d.Key]; ok {
			optional = append(optional, d)
		}
	}

	fmt.Fprintf(b, "Catalog Node '%s' - %s\nDescription:%s\n", cn.Key, cn.Name, cn.Description)
	writeDescriptors(b, "Required Configuration:", required)
	writeDescriptors(b, "Optional Configuration:", optional)
	writeDescriptors(b, "Catalog Node Provided Configuration:", provided)
	if len(results) > 0 {
		b.WriteString("Results:\n")
		for _, rd := range results {
			fmt.Fprintf(b, " - %s : %s\n", rd.Code, rd.Description)
		}
	}
	b.WriteString("\n")
	return nil
}

func writeDescriptors(b *strings.Builder, title string, descriptors []types.ConfigDescriptor) {
	if len(descriptors) == 0 {
		return
	}
	b.WriteString(title + "\n")
	for _, d := range descriptors {
		fmt.Fprintf(b, " - %s (%s) : %s\n", d.Name, d.Key, d.Description)
	}
}
