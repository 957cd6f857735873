package nodecode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"procagent/internal/process"
	"procagent/internal/types"
)

// Configuration keys shared by the built-in node codes.
const (
	KeyContextPath           = "context_path"
	KeyValue                 = "value"
	KeyInputContextPath      = "input_context_path"
	KeyOutputContextPath     = "output_context_path"
	KeyInputArrayContextPath = "input_array_context_path"
	KeyFileContextPath       = "file_context_path"
	KeyModelContextPath      = "model_context_path"
	KeyPreambleContextPath   = "preamble_context_path"
)

// JSONPreamble is the preamble the model_to_json catalog node provides.
const JSONPreamble = "Create a JSON structured response without comments to complete an object with the following properties"

var okResult = []types.ResultDescription{
	{Code: types.ResultOK, Description: "The node completed."},
}

// Builtin returns a registry holding every built-in node code. Model shapes
// for model_to_output and hydrate_model are looked up in shapes.
func Builtin(shapes *Shapes) *Registry {
	if shapes == nil {
		shapes = NewShapes()
	}
	r := NewRegistry()
	r.MustRegister(startNode())
	r.MustRegister(stopNode())
	r.MustRegister(noopNode())
	r.MustRegister(contextSetNode())
	r.MustRegister(synthesisPrepNode())
	r.MustRegister(convertHTMLNode())
	r.MustRegister(writeFileNode())
	r.MustRegister(modelToOutputNode(shapes))
	r.MustRegister(hydrateModelNode(shapes))
	return r
}

func startNode() *NodeCode {
	return &NodeCode{
		Key:         types.StartKey,
		Name:        "Start",
		Description: "The node that begins every process.",
		Category:    CategoryFlow,
		Results:     okResult,
		CatalogNodes: []types.CatalogNode{{
			Key:         types.StartKey,
			Name:        "Start",
			Group:       "Flow",
			Description: "The first node of a process.",
		}},
		Execute: func(ctx context.Context, cfg Config, pc *process.Context) (Result, error) {
			return done("Process started"), nil
		},
	}
}

func stopNode() *NodeCode {
	return &NodeCode{
		Key:         types.StopKey,
		Name:        "Stop",
		Description: "The node that ends a process.",
		Category:    CategoryFlow,
		Results:     okResult,
		CatalogNodes: []types.CatalogNode{{
			Key:         types.StopKey,
			Name:        "Stop",
			Group:       "Flow",
			Description: "The last node of a process.",
		}},
		Execute: func(ctx context.Context, cfg Config, pc *process.Context) (Result, error) {
			return done("Process stopped"), nil
		},
	}
}

func noopNode() *NodeCode {
	return &NodeCode{
		Key:         "noop",
		Name:        "No Operation",
		Description: "Do nothing and continue.",
		Category:    CategoryFlow,
		Results:     okResult,
		Execute: func(ctx context.Context, cfg Config, pc *process.Context) (Result, error) {
			return done("Nothing to do"), nil
		},
	}
}

func contextSetNode() *NodeCode {
	return &NodeCode{
		Key:         "context_set",
		Name:        "Set Context Value",
		Description: "Set a value in the context.",
		Category:    CategoryData,
		Configuration: []types.ConfigDescriptor{
			{Key: KeyContextPath, Name: "Context Path", Description: "The context path to write.", Kind: types.KindString},
			{Key: KeyValue, Name: "Value", Description: "The value to store.", Kind: types.KindAny},
		},
		Results: okResult,
		CatalogNodes: []types.CatalogNode{{
			Key:         "context_set",
			Name:        "Set Context Value",
			Group:       "Data",
			Description: "Store a fixed value at a context path.",
		}},
		Execute: func(ctx context.Context, cfg Config, pc *process.Context) (Result, error) {
			path := cfg.String(KeyContextPath)
			value, _ := cfg.Value(KeyValue)
			pc.Assign(path, value)
			return done("Set context value %q", path), nil
		},
	}
}

func synthesisPrepNode() *NodeCode {
	return &NodeCode{
		Key:         "synthesis_prep",
		Name:        "Synthesis Preparation",
		Description: "Prepare the context to be sent to the synthesis node.",
		Category:    CategoryData,
		Configuration: []types.ConfigDescriptor{
			{Key: KeyInputArrayContextPath, Name: "Input Array", Description: "A context path holding the list of context paths where the data can be found.", Kind: types.KindString},
			{Key: KeyOutputContextPath, Name: "Output Context Path", Description: "The context path where the data will be stored.", Kind: types.KindString},
		},
		Results: okResult,
		CatalogNodes: []types.CatalogNode{{
			Key:         "synthesis_prep",
			Name:        "Synthesis Prep",
			Group:       "GenAI",
			Description: "Merge data into a context value to be sent for synthesis.",
		}},
		Execute: func(ctx context.Context, cfg Config, pc *process.Context) (Result, error) {
			outputPath := cfg.String(KeyOutputContextPath)
			entries, _ := pc.Lookup(cfg.String(KeyInputArrayContextPath))

			var inputs []string
			for _, entry := range asList(entries) {
				switch e := entry.(type) {
				case string:
					v, _ := pc.LookupString(e)
					inputs = append(inputs, v)
				case map[string]interface{}:
					if header := types.ExtractString(e["header"]); header != "" {
						inputs = append(inputs, header)
					}
					if dataPath := types.ExtractString(e["data"]); dataPath != "" {
						v, _ := pc.LookupString(dataPath)
						inputs = append(inputs, v)
					}
				}
			}

			existing, _ := pc.Lookup(outputPath)
			prior := asList(existing)
			output := make([]interface{}, 0, len(prior)+1)
			output = append(output, prior...)
			output = append(output, strings.Join(inputs, "\n"))
			pc.Assign(outputPath, output)
			return done("Prepared %d inputs into %q", len(inputs), outputPath), nil
		},
	}
}

func convertHTMLNode() *NodeCode {
	md := goldmark.New()
	return &NodeCode{
		Key:         "convert_html",
		Name:        "Convert HTML",
		Description: "Convert Markdown to HTML.",
		Category:    CategoryData,
		Configuration: []types.ConfigDescriptor{
			{Key: KeyInputContextPath, Name: "Input Context Path", Description: "The context path holding the Markdown.", Kind: types.KindString},
			{Key: KeyOutputContextPath, Name: "Output Context Path", Description: "The context path where the HTML is stored.", Kind: types.KindString, Default: "html_data"},
		},
		Results: okResult,
		CatalogNodes: []types.CatalogNode{{
			Key:         "convert_html",
			Name:        "Convert HTML",
			Group:       "Data",
			Description: "Convert Markdown found in the context into HTML.",
		}},
		Execute: func(ctx context.Context, cfg Config, pc *process.Context) (Result, error) {
			markdown, _ := pc.LookupString(cfg.String(KeyInputContextPath))
			var buf bytes.Buffer
			if err := md.Convert([]byte(markdown), &buf); err != nil {
				return Result{Status: types.ResultError}, fmt.Errorf("failed to convert markdown: %w", err)
			}
			outputPath := cfg.String(KeyOutputContextPath)
			pc.Assign(outputPath, buf.String())
			return done("Wrote HTML to context %q", outputPath), nil
		},
	}
}

func writeFileNode() *NodeCode {
	return &NodeCode{
		Key:         "write_file",
		Name:        "Write File",
		Description: "Write a string found in the context to a file.",
		Category:    CategoryFile,
		Configuration: []types.ConfigDescriptor{
			{Key: KeyInputContextPath, Name: "Input Context Path", Description: "The context path holding the data to write.", Kind: types.KindString},
			{Key: KeyFileContextPath, Name: "File Context Path", Description: "The context path holding the file name.", Kind: types.KindString},
		},
		Results: okResult,
		CatalogNodes: []types.CatalogNode{{
			Key:         "write_file",
			Name:        "Write File",
			Group:       "File",
			Description: "Write data from the context to a file named in the context.",
		}},
		Execute: func(ctx context.Context, cfg Config, pc *process.Context) (Result, error) {
			data, _ := pc.LookupString(cfg.String(KeyInputContextPath))
			filename, found := pc.LookupString(cfg.String(KeyFileContextPath))
			if !found || filename == "" {
				return Result{Status: types.ResultError}, fmt.Errorf("no file name at context path %q", cfg.String(KeyFileContextPath))
			}
			if dir := filepath.Dir(filename); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return Result{Status: types.ResultError}, fmt.Errorf("failed to create directory: %w", err)
				}
			}
			if err := os.WriteFile(filename, []byte(data), 0644); err != nil {
				return Result{Status: types.ResultError}, fmt.Errorf("failed to write file: %w", err)
			}
			return done("Wrote data to file %q", filename), nil
		},
	}
}

func modelToOutputNode(shapes *Shapes) *NodeCode {
	return &NodeCode{
		Key:         "model_to_output",
		Name:        "Model to Output",
		Description: "Convert a model to a GenAI prompt to inform of the output.",
		Category:    CategoryGenAI,
		Configuration: []types.ConfigDescriptor{
			{Key: KeyModelContextPath, Name: "Model Context Path", Description: "A context path where the key of the model shape can be found.", Kind: types.KindString},
			{Key: KeyOutputContextPath, Name: "Output Context Path", Description: "The content path where the final prompt is stored.", Kind: types.KindString, Default: "prompt_output"},
			{Key: KeyPreambleContextPath, Name: "Preamble Context Path", Description: "The content path where the prompt preamble is stored.", Kind: types.KindString},
		},
		Results: okResult,
		CatalogNodes: []types.CatalogNode{
			{
				Key:         "model_to_output",
				Name:        "Model to Output",
				Group:       "Data",
				Description: "Take a model and create a GenAI prompt that will create the data in the right format.",
			},
			{
				Key:         "model_to_json",
				Name:        "Model to JSON",
				Group:       "Data",
				Description: "Take a model and create a GenAI prompt that will create the data in a JSON format.",
				Configuration: map[string]interface{}{
					KeyPreambleContextPath: JSONPreamble,
				},
			},
		},
		Execute: func(ctx context.Context, cfg Config, pc *process.Context) (Result, error) {
			shape, err := lookupShape(shapes, cfg, pc)
			if err != nil {
				return Result{Status: types.ResultError}, err
			}

			// The preamble may be a context path or the text itself.
			preamble := cfg.String(KeyPreambleContextPath)
			if v, found := pc.LookupString(preamble); found {
				preamble = v
			}

			outputPath := cfg.String(KeyOutputContextPath)
			pc.Assign(outputPath, shape.Describe(preamble))
			return done("Added the prompt to build the output for %q with %d properties", shape.Key, len(shape.Fields)), nil
		},
	}
}

func hydrateModelNode(shapes *Shapes) *NodeCode {
	return &NodeCode{
		Key:         "hydrate_model",
		Name:        "Hydrate Model",
		Description: "Hydrate a model with data in the context.",
		Category:    CategoryGenAI,
		Configuration: []types.ConfigDescriptor{
			{Key: KeyModelContextPath, Name: "Model Context Path", Description: "A context path where the key of the model shape can be found.", Kind: types.KindString},
			{Key: KeyOutputContextPath, Name: "Output Context Path", Description: "The context path where the model is stored.", Kind: types.KindString, Default: "prompt_output"},
			{Key: KeyInputContextPath, Name: "Input Context Path", Description: "The context path holding the response with a fenced JSON block.", Kind: types.KindString},
		},
		Results: okResult,
		CatalogNodes: []types.CatalogNode{{
			Key:         "hydrate_model",
			Name:        "Hydrate Model",
			Group:       "GenAI",
			Description: "Build a model from the JSON block of a GenAI response.",
		}},
		Execute: func(ctx context.Context, cfg Config, pc *process.Context) (Result, error) {
			shape, err := lookupShape(shapes, cfg, pc)
			if err != nil {
				return Result{Status: types.ResultError}, err
			}
			input, _ := pc.LookupString(cfg.String(KeyInputContextPath))
			model, err := shape.Hydrate(input)
			if err != nil {
				return Result{Status: types.ResultError}, err
			}
			pc.Assign(cfg.String(KeyOutputContextPath), model)
			return done("Added %q model", shape.Key), nil
		},
	}
}

func lookupShape(shapes *Shapes, cfg Config, pc *process.Context) (Shape, error) {
	key, found := pc.LookupString(cfg.String(KeyModelContextPath))
	if !found {
		return Shape{}, fmt.Errorf("%w: nothing at context path %q", ErrUnknownShape, cfg.String(KeyModelContextPath))
	}
	return shapes.Get(key)
}

// asList reads a context value as a list; a scalar becomes a one-element list.
func asList(v interface{}) []interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return x
	case []string:
		out := make([]interface{}, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	default:
		return []interface{}{x}
	}
}
