package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate 避免读取开发机上的配置
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("WORDTREE_CONFIG", "")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.DB.InMemory)
	assert.Contains(t, cfg.DB.Dir, filepath.Join("wordtree", "db"))
	assert.Equal(t, 5*time.Minute, cfg.DB.GCInterval)
	assert.Equal(t, 0.5, cfg.DB.GCDiscardRatio)
	assert.Equal(t, "gse", cfg.Predict.Segmenter)
	assert.Equal(t, 10, cfg.Predict.MaxCandidates)
	assert.Equal(t, "nz", cfg.Predict.DefaultPos)
	assert.Equal(t, 3, cfg.Tree.Depth)
	assert.Equal(t, 4, cfg.Tree.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_FileAndEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `db:
  dir: /tmp/wordtree-test
  gc_interval: 1m
predict:
  segmenter: simple
  max_candidates: 5
tree:
  depth: 2
  min_probability: 0.01
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("WORDTREE_TREE_DEPTH", "6")
	t.Setenv("WORDTREE_DB_IN_MEMORY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/tmp/wordtree-test", cfg.DB.Dir)
	assert.Equal(t, time.Minute, cfg.DB.GCInterval)
	assert.True(t, cfg.DB.InMemory)
	assert.Equal(t, "simple", cfg.Predict.Segmenter)
	assert.Equal(t, 5, cfg.Predict.MaxCandidates)
	assert.Equal(t, 6, cfg.Tree.Depth, "env overrides file")
	assert.Equal(t, 0.01, cfg.Tree.MinProbability)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no dir", func(c *Config) { c.DB.Dir = "" }},
		{"discard ratio", func(c *Config) { c.DB.GCDiscardRatio = 1 }},
		{"segmenter", func(c *Config) { c.Predict.Segmenter = "jieba" }},
		{"max candidates", func(c *Config) { c.Predict.MaxCandidates = 0 }},
		{"depth", func(c *Config) { c.Tree.Depth = -1 }},
		{"min probability", func(c *Config) { c.Tree.MinProbability = 2 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	inMem := base
	inMem.DB.Dir = ""
	inMem.DB.InMemory = true
	assert.NoError(t, inMem.Validate())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf, true)
	logger.Debug("debug on")
	assert.Contains(t, buf.String(), "msg=\"debug on\"")
}
