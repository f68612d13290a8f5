package configs

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config enumerates everything the pipeline needs up front: data
// source, chunking and embedding parameters, the vector store address
// and the staging/ledger locations. No environment sniffing; the
// caller decides where things live.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Discord   DiscordConfig   `yaml:"discord,omitempty"`
}

type DataConfig struct {
	Path       string `yaml:"path" validate:"required"`
	MinTokens  int    `yaml:"min_tokens" validate:"gte=0"`
	SampleSize int    `yaml:"sample_size" validate:"gte=0"`
	SampleSeed int64  `yaml:"sample_seed"`
}

type ChunkingConfig struct {
	Window   int `yaml:"window" validate:"gt=0"`
	Stride   int `yaml:"stride" validate:"gt=0"`
	MaxChars int `yaml:"max_chars" validate:"gt=0"`
}

type EmbeddingConfig struct {
	BaseURL      string `yaml:"base_url" validate:"required,url"`
	Model        string `yaml:"model" validate:"required"`
	BatchSize    int    `yaml:"batch_size" validate:"gt=0"`
	MaxSeqLength int    `yaml:"max_seq_length" validate:"gte=0"`
}

type QdrantConfig struct {
	Host            string `yaml:"host" validate:"required"`
	Port            int    `yaml:"port" validate:"gt=0"`
	Collection      string `yaml:"collection" validate:"required"`
	OnDisk          bool   `yaml:"on_disk"`
	UpsertBatchSize int    `yaml:"upsert_batch_size" validate:"gt=0"`
}

type PipelineConfig struct {
	StagingDir      string `yaml:"staging_dir" validate:"required"`
	LedgerPath      string `yaml:"ledger_path" validate:"required"`
	ValidationQuery string `yaml:"validation_query" validate:"required"`
	ValidationLimit int    `yaml:"validation_limit" validate:"gt=0"`
}

type DiscordConfig struct {
	Token     string `yaml:"token,omitempty"`
	ChannelID string `yaml:"channel_id,omitempty"`
}

// LoadConfig reads a YAML config file, expanding ${VAR} references
// from the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configs file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config pre-filled with the reference parameters:
// 3-sentence windows with stride 2, 2000-char soft cap, embedding
// batches of 16, upsert batches of 100.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			MinTokens:  3,
			SampleSeed: 42,
		},
		Chunking: ChunkingConfig{
			Window:   3,
			Stride:   2,
			MaxChars: 2000,
		},
		Embedding: EmbeddingConfig{
			BaseURL:      "http://localhost:1234",
			Model:        "all-mpnet-base-v2",
			BatchSize:    16,
			MaxSeqLength: 512,
		},
		Qdrant: QdrantConfig{
			Host:            "localhost",
			Port:            6334,
			Collection:      "sec_filings",
			OnDisk:          true,
			UpsertBatchSize: 100,
		},
		Pipeline: PipelineConfig{
			StagingDir:      "staging",
			LedgerPath:      "data/ledger.db",
			ValidationQuery: "What are the main business risks?",
			ValidationLimit: 3,
		},
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configs: %w", err)
	}
	if c.Chunking.Stride > c.Chunking.Window {
		return fmt.Errorf("chunking stride (%d) cannot exceed window (%d)", c.Chunking.Stride, c.Chunking.Window)
	}
	if c.Discord.Token != "" && c.Discord.ChannelID == "" {
		return fmt.Errorf("discord channel_id is required when a token is set")
	}
	return nil
}
