package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-befunge-cfg/internal/log"
	"github.com/l3aro/go-befunge-cfg/pkg/optimize"
	"github.com/l3aro/go-befunge-cfg/pkg/snapshot"
)

// Config holds all configuration for bfc
type Config struct {
	// Level is the highest optimizer level the compiler runs
	Level string `yaml:"level" env:"BFC_LEVEL"`

	// MaxIterations caps the rounds spent saturating one level
	MaxIterations int `yaml:"max_iterations" env:"BFC_MAX_ITERATIONS"`

	// AllowSelfModification skips grid cells holding code instead of failing
	AllowSelfModification bool `yaml:"allow_self_modification" env:"BFC_ALLOW_SELF_MODIFICATION"`

	// VerifyGraph checks the graph invariants after every rewrite
	VerifyGraph bool `yaml:"verify_graph" env:"BFC_VERIFY_GRAPH"`

	// Output
	OutputFormat string `yaml:"output_format" env:"BFC_OUTPUT_FORMAT"`

	// CacheFile stores compiled snapshots between runs; empty disables caching
	CacheFile string `yaml:"cache_file" env:"BFC_CACHE_FILE"`

	// Logging
	LogLevel string `yaml:"log_level" env:"BFC_LOG_LEVEL"`
	JSONLog  bool   `yaml:"json_log" env:"BFC_JSON_LOG"`
	Verbose  bool   `yaml:"verbose" env:"BFC_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:                 optimize.LevelReduce.String(),
		MaxIterations:         optimize.DefaultMaxIterations,
		AllowSelfModification: false,
		VerifyGraph:           true,
		OutputFormat:          string(snapshot.FormatText),
		LogLevel:              "info",
		JSONLog:               false,
		Verbose:               false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.bfc/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bfc/config.yaml"
	}
	return filepath.Join(home, ".bfc", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.bfc/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".bfc", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Project-level config (./.bfc/config.yaml)
// 2. Environment variables
// 3. Global config (~/.bfc/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := mergeFile(cfg, GlobalConfigFilePath()); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := mergeFile(cfg, ProjectConfigFilePath()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path. The file
// takes precedence over environment variables.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	applyEnvOverrides(cfg)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile overlays the YAML file at path onto cfg. A missing file is not an error.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	cfg.Level = env.Str("BFC_LEVEL", cfg.Level)
	if i := env.Int("BFC_MAX_ITERATIONS", 0); i > 0 {
		cfg.MaxIterations = i
	}
	if env.Has("BFC_ALLOW_SELF_MODIFICATION") {
		cfg.AllowSelfModification = env.Bool("BFC_ALLOW_SELF_MODIFICATION")
	}
	if env.Has("BFC_VERIFY_GRAPH") {
		cfg.VerifyGraph = env.Bool("BFC_VERIFY_GRAPH")
	}
	cfg.OutputFormat = env.Str("BFC_OUTPUT_FORMAT", cfg.OutputFormat)
	cfg.CacheFile = env.Str("BFC_CACHE_FILE", cfg.CacheFile)
	cfg.LogLevel = env.Str("BFC_LOG_LEVEL", cfg.LogLevel)
	if env.Has("BFC_JSON_LOG") {
		cfg.JSONLog = env.Bool("BFC_JSON_LOG")
	}
	if env.Has("BFC_VERBOSE") {
		cfg.Verbose = env.Bool("BFC_VERBOSE")
	}
}

// Validate checks that every field holds a usable value
func (c *Config) Validate() error {
	if _, err := optimize.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if _, err := snapshot.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("invalid output_format: %w", err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// OptimizerLevel returns the configured level.
func (c *Config) OptimizerLevel() optimize.Level {
	l, err := optimize.ParseLevel(c.Level)
	if err != nil {
		return optimize.LevelReduce
	}
	return l
}

// OptimizerOptions returns the optimizer settings carried by the config.
func (c *Config) OptimizerOptions() optimize.Options {
	return optimize.Options{
		MaxIterations:         c.MaxIterations,
		AllowSelfModification: c.AllowSelfModification,
	}
}

// LoggerConfig returns the logger settings. Verbose forces debug output.
func (c *Config) LoggerConfig() log.LoggerConfig {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if c.Verbose {
		level = log.DebugLevel
	}
	return log.LoggerConfig{Level: level, JSONOutput: c.JSONLog}
}
