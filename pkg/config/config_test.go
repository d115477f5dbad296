package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Generate.SampleSize)
	assert.Equal(t, DocIDHex, cfg.Generate.DocIDEncoding)
	assert.Equal(t, "results/res_id.csv", cfg.Evaluate.ActualPath)
	assert.False(t, cfg.Evaluate.StrictLineCount)
	assert.Equal(t, cfg.Generate.MaxLineBytes, cfg.Evaluate.MaxLineBytes)
	assert.Empty(t, cfg.Evaluate.QueryPath)
	assert.False(t, cfg.Postgres.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.yaml")
	yml := `
generate:
  corpusPath: corpus.csv.zst
  sampleSize: 25
  seed: 42
  docIDEncoding: opaque
evaluate:
  strictLineCount: true
redis:
  ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("CSH_GENERATE_SAMPLE_SIZE", "7")
	t.Setenv("CSH_GENERATE_SEED", "not-a-number")
	t.Setenv("CSH_EVALUATE_MAX_LINE_BYTES", "1048576")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "corpus.csv.zst", cfg.Generate.CorpusPath)
	assert.Equal(t, 7, cfg.Generate.SampleSize)
	assert.Equal(t, uint64(42), cfg.Generate.Seed)
	assert.Equal(t, DocIDOpaque, cfg.Generate.DocIDEncoding)
	assert.True(t, cfg.Evaluate.StrictLineCount)
	assert.Equal(t, 1<<20, cfg.Evaluate.MaxLineBytes)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "input.txt", cfg.Generate.QueryPath)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative sample size", func(c *Config) { c.Generate.SampleSize = -1 }},
		{"unknown encoding", func(c *Config) { c.Generate.DocIDEncoding = "base64" }},
		{"empty corpus path", func(c *Config) { c.Generate.CorpusPath = "" }},
		{"empty actual path", func(c *Config) { c.Evaluate.ActualPath = "" }},
		{"kafka without topic", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Topic = "" }},
		{"zero line limit", func(c *Config) { c.Generate.MaxLineBytes = 0 }},
		{"zero evaluate line limit", func(c *Config) { c.Evaluate.MaxLineBytes = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), apperrors.ErrInvalidConfig)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
