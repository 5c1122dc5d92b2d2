// Copyright 2026 Chalkpath Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chalkpath/ragmill/ai"
	"github.com/chalkpath/ragmill/ingestion"
)

// AIConfig configures the OpenAI-compatible model endpoints.
type AIConfig struct {
	// Host sets both endpoints; the per-service hosts override it.
	Host           string `yaml:"host"`
	EmbeddingHost  string `yaml:"embedding_host,omitempty"`
	GeneratorHost  string `yaml:"generator_host,omitempty"`
	EmbeddingModel string `yaml:"embedding_model"`
	GeneratorModel string `yaml:"generator_model"`
	// APIKeyEnv names the environment variable holding the API key,
	// so the key itself never lands in the config file.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

// IngestionConfig configures the ingestion pipeline.
type IngestionConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap is a pointer so an explicit `chunk_overlap: 0` is
	// distinguishable from the key being absent; only absence gets the
	// default.
	ChunkOverlap   *int     `yaml:"chunk_overlap"`
	Transform      bool     `yaml:"transform"`
	MaxRetries     int      `yaml:"max_retries"`
	RetryDelaySecs int      `yaml:"retry_delay_secs"`
	BatchSize      int      `yaml:"batch_size"`
	HashLimit      int      `yaml:"hash_limit"`
	Concurrency    int      `yaml:"concurrency"`
	WebClasses     []string `yaml:"web_classes,omitempty"`
}

// SearchConfig configures retrieval.
type SearchConfig struct {
	MaxHits int `yaml:"max_hits"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DataDir   string          `yaml:"data_dir"`
	AI        AIConfig        `yaml:"ai"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Search    SearchConfig    `yaml:"search"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./ragmill.yaml first, then ~/.config/ragmill/config.yaml.
// If neither exists it returns defaults without writing anything.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "ragmill.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err == nil {
		if _, statErr := os.Stat(userPath); statErr == nil {
			cfg, err := Load(userPath)
			return cfg, userPath, err
		}
	}
	return defaultConfig(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AIConfig materializes the ai package configuration, resolving the API
// key from the environment.
func (c *AppConfig) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{}
	if c.AI.Host != "" {
		opts = append(opts, ai.WithHost(c.AI.Host))
	}
	if c.AI.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(c.AI.EmbeddingHost))
	}
	if c.AI.GeneratorHost != "" {
		opts = append(opts, ai.WithGeneratorHost(c.AI.GeneratorHost))
	}
	if c.AI.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(c.AI.EmbeddingModel))
	}
	if c.AI.GeneratorModel != "" {
		opts = append(opts, ai.WithGeneratorModel(c.AI.GeneratorModel))
	}
	if c.AI.APIKeyEnv != "" {
		if key := os.Getenv(c.AI.APIKeyEnv); key != "" {
			opts = append(opts, ai.WithAPIKey(key))
		}
	}
	return ai.NewConfig(opts...)
}

// PipelineOptions materializes the ingestion pipeline options.
func (c *AppConfig) PipelineOptions() []ingestion.PipelineOption {
	opts := []ingestion.PipelineOption{
		ingestion.WithSplitterConfig(c.Ingestion.ChunkSize, *c.Ingestion.ChunkOverlap),
		ingestion.WithTransform(c.Ingestion.Transform),
		ingestion.WithRetryConfig(c.Ingestion.MaxRetries, time.Duration(c.Ingestion.RetryDelaySecs)*time.Second),
		ingestion.WithEmbeddingBatchSize(c.Ingestion.BatchSize),
		ingestion.WithHashLimit(c.Ingestion.HashLimit),
		ingestion.WithConcurrency(c.Ingestion.Concurrency),
	}
	if len(c.Ingestion.WebClasses) > 0 {
		opts = append(opts, ingestion.WithLoaderOptions(ingestion.WithWebClasses(c.Ingestion.WebClasses)))
	}
	return opts
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragmill", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, ".ragmill")
		} else {
			cfg.DataDir = ".ragmill"
		}
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "embeddinggemma"
	}
	if cfg.AI.GeneratorModel == "" {
		cfg.AI.GeneratorModel = "qwen2.5:3b"
	}
	if cfg.Ingestion.ChunkSize == 0 {
		cfg.Ingestion.ChunkSize = ingestion.DefaultChunkSize
	}
	if cfg.Ingestion.ChunkOverlap == nil {
		overlap := ingestion.DefaultChunkOverlap
		cfg.Ingestion.ChunkOverlap = &overlap
	}
	if cfg.Ingestion.MaxRetries == 0 {
		cfg.Ingestion.MaxRetries = ingestion.DefaultMaxRetries
	}
	if cfg.Ingestion.RetryDelaySecs == 0 {
		cfg.Ingestion.RetryDelaySecs = 1
	}
	if cfg.Ingestion.BatchSize == 0 {
		cfg.Ingestion.BatchSize = ingestion.DefaultBatchSize
	}
	if cfg.Ingestion.HashLimit == 0 {
		cfg.Ingestion.HashLimit = ingestion.DefaultHashLimit
	}
	if cfg.Ingestion.Concurrency == 0 {
		cfg.Ingestion.Concurrency = 1
	}
	if cfg.Search.MaxHits == 0 {
		cfg.Search.MaxHits = 5
	}
}
