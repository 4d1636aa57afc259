// Package config provides file-based configuration for vizagent.
//
// Configuration is loaded in layers: built-in defaults, then an optional
// YAML file. Credentials are deliberately not configurable here - API keys
// come from the environment or an interactive prompt, never from a file or
// a built-in default.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for vizagent.
type Config struct {
	Model   string        `yaml:"model"`   // default: "deepseek-coder"
	LLM     LLMConfig     `yaml:"llm"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Output  OutputConfig  `yaml:"output"`
}

// LLMConfig holds model endpoint settings.
type LLMConfig struct {
	// BaseURL overrides the provider endpoint for OpenAI-compatible
	// models. Empty = use the provider's default endpoint.
	BaseURL string `yaml:"base_url"`
}

// SandboxConfig holds sandbox service settings.
type SandboxConfig struct {
	Template string        `yaml:"template"` // default: "code-interpreter-v1"
	BaseURL  string        `yaml:"base_url"` // default: service endpoint
	Timeout  time.Duration `yaml:"timeout"`  // default: 180s
}

// OutputConfig holds artifact and log output settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`     // default: "out"
	LogDir string `yaml:"log_dir"` // empty = JSONL logging disabled
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Model: "deepseek-coder",
		Sandbox: SandboxConfig{
			Template: "code-interpreter-v1",
			Timeout:  180 * time.Second,
		},
		Output: OutputConfig{
			Dir: "out",
		},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Model == "" {
		return fmt.Errorf("config: model must not be empty")
	}
	if c.Sandbox.Template == "" {
		return fmt.Errorf("config: sandbox template must not be empty")
	}
	if c.Sandbox.Timeout < 0 {
		return fmt.Errorf("config: sandbox timeout must not be negative")
	}
	return nil
}
