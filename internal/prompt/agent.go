package prompt

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"procagent/internal/cognition"
	"procagent/internal/requirement"
)

// Commands given to the brain by each agent.
const (
	SelectCommand     = "Take the mission and stimulus and decide which process should be called and create the initial context. Required configuration values without default values must be set in the initial context. Optional configuration values are optional."
	SynthesizeCommand = "Take the mission and stimulus and build a process and create the initial context. Required configuration values without default values must be set in the initial context. Optional configuration values are optional."
)

// Section headings of the agent prompts.
const (
	HeadingCommand  = "### COMMAND"
	HeadingMission  = "### MISSION"
	HeadingStimulus = "### STIMULUS"
	HeadingOptions  = "### PROCESS OPTIONS"
	HeadingBuilder  = "### PROCESS BUILDER INSTRUCTIONS"
	HeadingResponse = "### RESPONSE FORMAT"
)

// SelectResponseFormat shows the brain the reply expected in select mode.
var SelectResponseFormat = fmt.Sprintf(
	`Return JSON data with the suggested process key and initial context to run the process. {"%s": "my_key", "%s": {"one": 1, "customer": "ABC123"}, "%s": "The reason I chose this tool is ABC."}`,
	cognition.KeyProcess, cognition.KeyContext, cognition.KeyReason,
)

// SynthesizeResponseFormat shows the brain the reply expected in synthesize mode.
var SynthesizeResponseFormat = fmt.Sprintf(
	`Return JSON data with the suggested process key and initial context to run the process. {"%s": { "schema_version": 1, "key": "api_data_import", "version": 1, "context": {}, "nodes": [...]}, "%s": {"one": 1, "customer": "ABC123"}, "%s": "The reason I build this tool is ABC."}`,
	cognition.KeyProcess, cognition.KeyContext, cognition.KeyReason,
)

// ProcessMeta describes one registered process to the brain.
type ProcessMeta struct {
	Key         string                       `json:"key"`
	Description string                       `json:"description"`
	Required    map[string]requirement.Entry `json:"required_context_values"`
	Optional    map[string]requirement.Entry `json:"optional_context_values"`
}

// Sections holds the parts of an agent prompt in output order.
type Sections struct {
	Command        string
	Mission        string
	Stimulus       string
	OptionsHeading string
	Options        string
	ResponseFormat string
}

// String joins the sections under their headings.
func (s Sections) String() string {
	parts := []struct{ heading, body string }{
		{HeadingCommand, s.Command},
		{HeadingMission, s.Mission},
		{HeadingStimulus, s.Stimulus},
		{s.OptionsHeading, s.Options},
		{HeadingResponse, s.ResponseFormat},
	}
	blocks := make([]string, len(parts))
	for i, p := range parts {
		blocks[i] = p.heading + "\n" + p.body
	}
	return strings.Join(blocks, "\n\n")
}

// Select builds the prompt asking the brain to pick one of processes.
func Select(mission, stimulus string, processes []ProcessMeta) (string, error) {
	if processes == nil {
		processes = []ProcessMeta{}
	}
	options, err := json.MarshalNoEscape(processes)
	if err != nil {
		return "", fmt.Errorf("failed to encode process options: %w", err)
	}
	return Sections{
		Command:        SelectCommand,
		Mission:        mission,
		Stimulus:       stimulus,
		OptionsHeading: HeadingOptions,
		Options:        string(options),
		ResponseFormat: SelectResponseFormat,
	}.String(), nil
}

// Synthesize builds the prompt asking the brain to write a new process.
// builder is the rendered catalog; it is embedded as a JSON string.
func Synthesize(mission, stimulus, builder string) (string, error) {
	encoded, err := json.MarshalNoEscape(builder)
	if err != nil {
		return "", fmt.Errorf("failed to encode builder instructions: %w", err)
	}
	return Sections{
		Command:        SynthesizeCommand,
		Mission:        mission,
		Stimulus:       stimulus,
		OptionsHeading: HeadingBuilder,
		Options:        string(encoded),
		ResponseFormat: SynthesizeResponseFormat,
	}.String(), nil
}
