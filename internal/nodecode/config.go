package nodecode

import (
	"fmt"
	"sort"
	"strings"

	"dario.cat/mergo"

	"procagent/internal/process"
	"procagent/internal/types"
)

// Config is the effective configuration seen by one node code execution.
type Config map[string]interface{}

// Merge layers node configuration over catalog configuration.
// A key present in both takes the node's value whole; nested maps are not
// merged into each other. The inputs are not modified.
func Merge(catalogCfg, nodeCfg map[string]interface{}) (Config, error) {
	out := process.CopyMap(catalogCfg)
	for k := range nodeCfg {
		delete(out, k)
	}
	if len(nodeCfg) > 0 {
		if err := mergo.Merge(&out, process.CopyMap(nodeCfg), mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge node configuration: %w", err)
		}
	}
	return Config(out), nil
}

// WithDefaults fills absent keys from descriptor defaults.
func (c Config) WithDefaults(descriptors []types.ConfigDescriptor) Config {
	out := make(Config, len(c)+len(descriptors))
	for k, v := range c {
		out[k] = v
	}
	for _, d := range descriptors {
		if _, ok := out[d.Key]; !ok && d.HasDefault() {
			out[d.Key] = d.Default
		}
	}
	return out
}

// FromContext fills absent declared keys from top-level context values.
// This is how values the brain supplied through process_context reach a node.
func (c Config) FromContext(descriptors []types.ConfigDescriptor, pc *process.Context) Config {
	if pc == nil {
		return c
	}
	out := make(Config, len(c)+len(descriptors))
	for k, v := range c {
		out[k] = v
	}
	for _, d := range descriptors {
		if _, ok := out[d.Key]; ok {
			continue
		}
		if v, ok := pc.Get(d.Key); ok && v != nil {
			out[d.Key] = v
		}
	}
	return out
}

// CheckRequired reports every required descriptor without a value.
func (c Config) CheckRequired(descriptors []types.ConfigDescriptor) error {
	var missing []string
	for _, d := range descriptors {
		if !d.IsRequired() {
			continue
		}
		if v, ok := c[d.Key]; !ok || v == nil {
			missing = append(missing, d.Key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
}

// String returns the value for key as a string.
func (c Config) String(key string) string {
	return types.ExtractString(c[key])
}

// Strings returns the value for key as a string list.
func (c Config) Strings(key string) []string {
	out, _ := types.ExtractStringSlice(c[key])
	return out
}

// Value returns the raw value for key.
func (c Config) Value(key string) (interface{}, bool) {
	v, ok := c[key]
	return v, ok
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
