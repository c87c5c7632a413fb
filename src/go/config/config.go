// Package config loads the application configuration from YAML, layering
// file contents over defaults and validating the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arvind3/qa-intelligence-platform/src/go/builder"
	"github.com/arvind3/qa-intelligence-platform/src/go/cluster"
	"github.com/arvind3/qa-intelligence-platform/src/go/copilot"
	"github.com/arvind3/qa-intelligence-platform/src/go/embedder"
	"github.com/arvind3/qa-intelligence-platform/src/go/vecindex"
)

// Config is the application configuration.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     vecindex.Config `yaml:"index"`
	Cluster   ClusterConfig   `yaml:"cluster"`
	Copilot   CopilotConfig   `yaml:"copilot"`
	Watcher   WatcherConfig   `yaml:"watcher"`
}

// EmbeddingConfig nests the embedder backend preferences plus build tuning.
type EmbeddingConfig struct {
	embedder.Config `yaml:",inline"`

	// ChunkSize is the number of rows embedded per build chunk.
	ChunkSize int `yaml:"chunk_size"`
}

// ClusterConfig holds similarity clustering settings.
type ClusterConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// CopilotConfig holds reasoning collaborator settings.
type CopilotConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Disabled       bool   `yaml:"disabled"`
}

// AskTimeout converts the configured timeout to a duration.
func (c CopilotConfig) AskTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WatcherConfig holds dataset file watcher settings.
type WatcherConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Config:    embedder.DefaultConfig(),
			ChunkSize: builder.DefaultChunkSize,
		},
		Index: vecindex.DefaultConfig(),
		Cluster: ClusterConfig{
			Threshold: cluster.DefaultThreshold,
		},
		Copilot: CopilotConfig{
			Endpoint:       "http://localhost:11434",
			Model:          "qwen2.5:3b-instruct",
			TimeoutSeconds: int(copilot.DefaultAskTimeout / time.Second),
		},
		Watcher: WatcherConfig{
			DebounceMs: 250,
		},
	}
}

// Load reads configuration from a file, or from standard locations when path
// is empty. Missing files are not an error; the defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = findConfigFile()
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile looks for a config file in standard locations.
func findConfigFile() string {
	homeDir, _ := os.UserHomeDir()

	locations := []string{
		"qaintel.yaml",
		".qaintel.yaml",
		filepath.Join(homeDir, ".config", "qaintel", "config.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Embedding.ChunkSize <= 0 {
		return fmt.Errorf("embedding.chunk_size must be positive")
	}
	if c.Embedding.HashDimensions <= 0 {
		return fmt.Errorf("embedding.hash_dimensions must be positive")
	}
	if c.Cluster.Threshold <= 0 || c.Cluster.Threshold > 1 {
		return fmt.Errorf("cluster.threshold must be in (0, 1]")
	}
	if c.Copilot.TimeoutSeconds < 0 {
		return fmt.Errorf("copilot.timeout_seconds must be non-negative")
	}
	if c.Watcher.DebounceMs < 0 {
		return fmt.Errorf("watcher.debounce_ms must be non-negative")
	}

	switch c.Index.Backend {
	case "auto", "sqlite-vec", "faiss", "brute-force":
	default:
		return fmt.Errorf("index.backend %q is not one of auto, sqlite-vec, faiss, brute-force", c.Index.Backend)
	}
	return nil
}

// Save writes the configuration to a file, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
