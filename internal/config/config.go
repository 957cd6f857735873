package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all procagent configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Reasoning backend
	Brain BrainConfig `yaml:"brain"`

	// Agent controller behaviour
	Agent AgentConfig `yaml:"agent"`

	// Catalog nodes and registered processes
	Catalog   CatalogConfig   `yaml:"catalog"`
	Processes ProcessesConfig `yaml:"processes"`

	// Invocation journal
	Journal JournalConfig `yaml:"journal"`

	// Brain token accounting
	Usage UsageConfig `yaml:"usage"`

	// HTTP mission API
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BrainConfig configures the reasoning backend.
type BrainConfig struct {
	Provider    string  `yaml:"provider"` // openai, gemini, scripted
	APIURL      string  `yaml:"api_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`

	// Replies is only used by the scripted provider (dry runs and demos).
	Replies []string `yaml:"replies,omitempty"`
}

// AgentConfig configures the agent controllers.
type AgentConfig struct {
	// Mode is the default controller: select or synthesize.
	Mode string `yaml:"mode"`

	// CollisionPolicy decides how a configuration key declared by several
	// nodes of one process is bucketed: last_wins or strictest_wins.
	CollisionPolicy string `yaml:"collision_policy"`

	// Instruction is appended to the catalog prompt in synthesize mode.
	Instruction string `yaml:"instruction,omitempty"`

	// MaxSteps bounds the number of nodes the built-in engine will run.
	MaxSteps int `yaml:"max_steps"`

	// BatchConcurrency bounds concurrent invocations in batch mode.
	BatchConcurrency int `yaml:"batch_concurrency"`
}

// CatalogConfig points at the catalog definition file.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// ProcessesConfig points at the directory of process documents.
type ProcessesConfig struct {
	Directory string `yaml:"directory"`
	Watch     bool   `yaml:"watch"`
}

// JournalConfig configures the SQLite invocation journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// UsageConfig configures brain token accounting.
type UsageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerConfig configures the HTTP mission API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
	ReadTimeout    string   `yaml:"read_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "procagent",
		Version: "0.3.0",

		Brain: BrainConfig{
			Provider:    "openai",
			APIURL:      "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o",
			Temperature: 0.7,
			Timeout:     "120s",
		},

		Agent: AgentConfig{
			Mode:             "select",
			CollisionPolicy:  "last_wins",
			MaxSteps:         1000,
			BatchConcurrency: 4,
		},

		Catalog: CatalogConfig{
			Path: "catalog.yaml",
		},

		Processes: ProcessesConfig{
			Directory: "processes",
		},

		Journal: JournalConfig{
			Enabled: false,
			Path:    "data/journal.db",
		},

		Usage: UsageConfig{
			Enabled: false,
			Path:    "data/usage.json",
		},

		Server: ServerConfig{
			Addr:        ":8088",
			ReadTimeout: "30s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Provider keys, in increasing priority
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Brain.APIKey = key
		if c.Brain.Provider == "" {
			c.Brain.Provider = "openai"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Brain.APIKey = key
		c.Brain.Provider = "gemini"
	}
	if key := os.Getenv("PROCAGENT_API_KEY"); key != "" {
		c.Brain.APIKey = key
	}

	if url := os.Getenv("PROCAGENT_API_URL"); url != "" {
		c.Brain.APIURL = url
	}
	if model := os.Getenv("PROCAGENT_MODEL"); model != "" {
		c.Brain.Model = model
	}
	if path := os.Getenv("PROCAGENT_JOURNAL"); path != "" {
		c.Journal.Path = path
		c.Journal.Enabled = true
	}
}

// GetBrainTimeout returns the brain call deadline as a duration.
func (c *Config) GetBrainTimeout() time.Duration {
	d, err := time.ParseDuration(c.Brain.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// GetServerReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) GetServerReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ValidProviders lists all supported brain providers.
var ValidProviders = []string{"openai", "gemini", "scripted"}

// ValidModes lists the agent controller modes.
var ValidModes = []string{"select", "synthesize"}

// ValidCollisionPolicies lists the resolver collision policies.
var ValidCollisionPolicies = []string{"last_wins", "strictest_wins"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.Brain.Provider) {
		return fmt.Errorf("invalid brain provider: %s (valid: %v)", c.Brain.Provider, ValidProviders)
	}
	if c.Brain.Provider != "scripted" && c.Brain.APIKey == "" {
		return fmt.Errorf("brain API key not configured (set PROCAGENT_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY)")
	}
	if c.Brain.Provider == "openai" && c.Brain.APIURL == "" {
		return fmt.Errorf("brain api_url is required for the openai provider")
	}
	if !contains(ValidModes, c.Agent.Mode) {
		return fmt.Errorf("invalid agent mode: %s (valid: %v)", c.Agent.Mode, ValidModes)
	}
	if !contains(ValidCollisionPolicies, c.Agent.CollisionPolicy) {
		return fmt.Errorf("invalid collision policy: %s (valid: %v)", c.Agent.CollisionPolicy, ValidCollisionPolicies)
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent max_steps must be positive")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
