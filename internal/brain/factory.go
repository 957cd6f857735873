package brain

import (
	"fmt"
	"strings"

	"procagent/internal/config"
	"procagent/internal/logging"
)

// New creates the brain selected by cfg.Brain.Provider.
func New(cfg *config.Config) (Brain, error) {
	bc := cfg.Brain
	provider := strings.ToLower(strings.TrimSpace(bc.Provider))
	logging.Get(logging.CategoryBrain).Info("creating brain: provider=%s model=%s", provider, bc.Model)

	switch provider {
	case "openai", "":
		if bc.APIKey == "" {
			return nil, fmt.Errorf("API key not configured")
		}
		temperature := bc.Temperature
		return NewChatBrain(ChatConfig{
			APIURL:      bc.APIURL,
			APIKey:      bc.APIKey,
			Model:       bc.Model,
			Temperature: &temperature,
			Timeout:     cfg.GetBrainTimeout(),
		}), nil
	case "gemini":
		model := bc.Model
		if strings.HasPrefix(model, "gpt-") {
			// The default model belongs to the openai provider.
			model = ""
		}
		return NewGeminiBrain(bc.APIKey, model, bc.Temperature, cfg.GetBrainTimeout())
	case "scripted":
		return NewScriptedBrain(bc.Replies...), nil
	default:
		return nil, fmt.Errorf("unknown brain provider: %s", bc.Provider)
	}
}
