// Package config loads quizforge.yaml with precedence:
// defaults → YAML file → environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dshills/quizforge/internal/route"
	"github.com/dshills/quizforge/internal/schema"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Scaffold ScaffoldConfig `yaml:"scaffold"`
	Output   OutputConfig   `yaml:"output"`
	Router   RouterConfig   `yaml:"router"`
	Batch    BatchConfig    `yaml:"batch"`
}

// ScaffoldConfig contains LLM scaffolding settings. API keys are read from
// the provider environment variables, never from YAML.
type ScaffoldConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Style       string  `yaml:"style"`
}

// OutputConfig contains package output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// RouterConfig carries categorization overrides for the routing table.
type RouterConfig struct {
	Overrides []RuleOverride `yaml:"overrides"`
}

// RuleOverride redirects errors of a kind/field to another category.
type RuleOverride struct {
	Kind     string `yaml:"kind"`
	Field    string `yaml:"field"`
	Category string `yaml:"category"`
}

// BatchConfig contains discovery settings for batch runs.
type BatchConfig struct {
	IgnoreDirs  []string `yaml:"ignore_dirs"`
	MaxFileSize int64    `yaml:"max_file_size"`
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// The config path comes from QUIZFORGE_CONFIG_PATH, default quizforge.yaml.
// A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("QUIZFORGE_CONFIG_PATH", "quizforge.yaml")
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Scaffold: ScaffoldConfig{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4-6",
			MaxTokens:   4096,
			Temperature: 0.2,
			Style:       "general",
		},
		Output: OutputConfig{
			Dir: "dist",
		},
		Batch: BatchConfig{
			IgnoreDirs:  []string{".git", "node_modules", "dist"},
			MaxFileSize: 1 << 20,
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QUIZFORGE_PROVIDER"); v != "" {
		cfg.Scaffold.Provider = v
	}
	if v := os.Getenv("QUIZFORGE_MODEL"); v != "" {
		cfg.Scaffold.Model = v
	}
	if v := os.Getenv("QUIZFORGE_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scaffold.MaxTokens = n
		}
	}
	if v := os.Getenv("QUIZFORGE_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scaffold.Temperature = f
		}
	}
	if v := os.Getenv("QUIZFORGE_STYLE"); v != "" {
		cfg.Scaffold.Style = v
	}
	if v := os.Getenv("QUIZFORGE_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
}

// validCategories are the category names accepted in router overrides.
var validCategories = map[string]schema.ErrorCategory{
	"MECHANICAL":  schema.CategoryMechanical,
	"STRUCTURAL":  schema.CategoryStructural,
	"PEDAGOGICAL": schema.CategoryPedagogical,
}

// validate checks that configuration values are usable.
func (c *Config) validate() error {
	if c.Scaffold.MaxTokens <= 0 {
		return fmt.Errorf("config: scaffold.max_tokens must be positive, got %d", c.Scaffold.MaxTokens)
	}
	if c.Scaffold.Temperature < 0 || c.Scaffold.Temperature > 2 {
		return fmt.Errorf("config: scaffold.temperature must be in [0, 2], got %v", c.Scaffold.Temperature)
	}
	for i, ov := range c.Router.Overrides {
		if ov.Kind == "" && ov.Field == "" {
			return fmt.Errorf("config: router.overrides[%d] needs a kind or a field", i)
		}
		if _, ok := validCategories[ov.Category]; !ok {
			return fmt.Errorf("config: router.overrides[%d] has invalid category %q", i, ov.Category)
		}
	}
	return nil
}

// RouteOverrides converts the configured overrides to the router's form.
func (c *Config) RouteOverrides() []route.Override {
	if len(c.Router.Overrides) == 0 {
		return nil
	}
	ovs := make([]route.Override, 0, len(c.Router.Overrides))
	for _, ov := range c.Router.Overrides {
		ovs = append(ovs, route.Override{
			Kind:     ov.Kind,
			Field:    ov.Field,
			Category: validCategories[ov.Category],
		})
	}
	return ovs
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
