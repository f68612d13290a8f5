package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "configs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  path: exports/sec_filings.jsonl
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "exports/sec_filings.jsonl", cfg.Data.Path)
	assert.Equal(t, 3, cfg.Chunking.Window)
	assert.Equal(t, 2, cfg.Chunking.Stride)
	assert.Equal(t, 2000, cfg.Chunking.MaxChars)
	assert.Equal(t, 16, cfg.Embedding.BatchSize)
	assert.Equal(t, 100, cfg.Qdrant.UpsertBatchSize)
	assert.Equal(t, "sec_filings", cfg.Qdrant.Collection)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.True(t, cfg.Qdrant.OnDisk)
	assert.Equal(t, int64(42), cfg.Data.SampleSeed)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
data:
  path: exports/rows.csv
  min_tokens: 5
  sample_size: 500
chunking:
  window: 4
  stride: 4
  max_chars: 1500
qdrant:
  host: qdrant
  collection: sec_demo
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Data.MinTokens)
	assert.Equal(t, 500, cfg.Data.SampleSize)
	assert.Equal(t, 4, cfg.Chunking.Window)
	assert.Equal(t, 4, cfg.Chunking.Stride)
	assert.Equal(t, "qdrant", cfg.Qdrant.Host)
	assert.Equal(t, "sec_demo", cfg.Qdrant.Collection)
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("FILINGS_EXPORT", "/data/exports/rows.jsonl")
	path := writeConfig(t, `
data:
  path: ${FILINGS_EXPORT}
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/exports/rows.jsonl", cfg.Data.Path)
}

func TestLoadConfigMissingDataPath(t *testing.T) {
	path := writeConfig(t, `
chunking:
  window: 3
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigStrideExceedsWindow(t *testing.T) {
	path := writeConfig(t, `
data:
  path: exports/rows.jsonl
chunking:
  window: 3
  stride: 4
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stride")
}

func TestLoadConfigDiscordNeedsChannel(t *testing.T) {
	path := writeConfig(t, `
data:
  path: exports/rows.jsonl
discord:
  token: abc
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_id")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("does-not-exist.yaml")
	require.Error(t, err)
}
