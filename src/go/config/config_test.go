package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "auto", cfg.Index.Backend)
	assert.Equal(t, 0.9, cfg.Cluster.Threshold)
	assert.Equal(t, 100, cfg.Embedding.ChunkSize)
	assert.Equal(t, 128, cfg.Embedding.HashDimensions)
	assert.Equal(t, "http://localhost:11434", cfg.Copilot.Endpoint)
	assert.Equal(t, 250, cfg.Watcher.DebounceMs)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Cluster.Threshold, cfg.Cluster.Threshold)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
embedding:
  backend: hash
  hash_dimensions: 256
  chunk_size: 50
index:
  backend: brute-force
cluster:
  threshold: 0.85
copilot:
  model: llama3
  timeout_seconds: 10
watcher:
  debounce_ms: 500
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hash", cfg.Embedding.Backend)
	assert.Equal(t, 256, cfg.Embedding.HashDimensions)
	assert.Equal(t, 50, cfg.Embedding.ChunkSize)
	assert.Equal(t, "brute-force", cfg.Index.Backend)
	assert.Equal(t, 0.85, cfg.Cluster.Threshold)
	assert.Equal(t, "llama3", cfg.Copilot.Model)
	assert.Equal(t, 10*time.Second, cfg.Copilot.AskTimeout())
	assert.Equal(t, 500, cfg.Watcher.DebounceMs)

	// fields the file omits keep their defaults
	assert.Equal(t, "http://localhost:11434", cfg.Copilot.Endpoint)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cluster:\n  threshold: 1.5\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	mutate := func(f func(*Config)) *Config {
		cfg := DefaultConfig()
		f(cfg)
		return cfg
	}

	assert.Error(t, mutate(func(c *Config) { c.Embedding.ChunkSize = 0 }).Validate())
	assert.Error(t, mutate(func(c *Config) { c.Embedding.HashDimensions = -1 }).Validate())
	assert.Error(t, mutate(func(c *Config) { c.Cluster.Threshold = 0 }).Validate())
	assert.Error(t, mutate(func(c *Config) { c.Watcher.DebounceMs = -1 }).Validate())
	assert.Error(t, mutate(func(c *Config) { c.Index.Backend = "bogus" }).Validate())
	assert.NoError(t, mutate(func(c *Config) { c.Index.Backend = "faiss" }).Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Cluster.Threshold = 0.95
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.95, loaded.Cluster.Threshold)
}
