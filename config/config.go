// Copyright 2025 Poiesic Systems
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

// Package config loads transcriptdb settings from a YAML file and the
// environment.
//
// Secrets never live in the file. The file names the environment variables
// that hold them, and .env files are loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/ingestion"
	"github.com/poiesic/transcriptdb/storage/pinecone"
)

// Store types.
const (
	StorePinecone = "pinecone"
	StoreBadger   = "badger"
)

// Lock types.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// AIConfig configures the language and embedding services.
type AIConfig struct {
	Host               string  `yaml:"host"`
	EmbeddingHost      string  `yaml:"embedding_host,omitempty"`
	ClassifierHost     string  `yaml:"classifier_host,omitempty"`
	APIKeyEnv          string  `yaml:"api_key_env"`
	EmbeddingModel     string  `yaml:"embedding_model"`
	ClassifierModel    string  `yaml:"classifier_model"`
	EmbeddingDimension int     `yaml:"embedding_dimension"`
	RequestsPerSecond  float64 `yaml:"requests_per_second"`
	Temperature        float64 `yaml:"temperature"`
	MaxCleanTokens     int     `yaml:"max_clean_tokens"`
}

// PineconeConfig contains connection details for a Pinecone index.
type PineconeConfig struct {
	APIKeyEnv       string `yaml:"api_key_env"`
	IndexName       string `yaml:"index_name"`
	Host            string `yaml:"host,omitempty"`
	ControlPlaneURL string `yaml:"control_plane_url,omitempty"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

// BadgerConfig locates a local badger store.
type BadgerConfig struct {
	Path string `yaml:"path"`
}

// StoreConfig selects and configures the vector store implementation.
type StoreConfig struct {
	Type     string         `yaml:"type"`
	Pinecone PineconeConfig `yaml:"pinecone"`
	Badger   BadgerConfig   `yaml:"badger"`
}

// LockConfig selects the lock guarding store writes.
type LockConfig struct {
	Type      string `yaml:"type"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
	TTLSecs   int    `yaml:"ttl_secs"`
}

// IngestConfig configures ingestion runs.
type IngestConfig struct {
	Dir             string `yaml:"dir"`
	Namespace       string `yaml:"namespace"`
	Pattern         string `yaml:"pattern"`
	BatchSize       int    `yaml:"batch_size"`
	DocumentWorkers int    `yaml:"document_workers"`
	CleaningWorkers int    `yaml:"cleaning_workers"`
	IDStrategy      string `yaml:"id_strategy"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	AI       AIConfig     `yaml:"ai"`
	Store    StoreConfig  `yaml:"store"`
	Lock     LockConfig   `yaml:"lock"`
	Ingest   IngestConfig `yaml:"ingest"`
	LogLevel string       `yaml:"log_level"`
}

// Load reads a config from path. If the file does not exist, returns defaults.
// Fields missing from the file keep their default values.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
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

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	aiDefaults := ai.DefaultConfig()
	ingestDefaults := ingestion.DefaultConfig()
	return &AppConfig{
		AI: AIConfig{
			Host:               ai.DefaultHost,
			APIKeyEnv:          "OPENAI_API_KEY",
			EmbeddingModel:     aiDefaults.EmbeddingModel,
			ClassifierModel:    aiDefaults.ClassifierModel,
			EmbeddingDimension: aiDefaults.EmbeddingDimension,
			Temperature:        aiDefaults.Temperature,
			MaxCleanTokens:     aiDefaults.MaxCleanTokens,
		},
		Store: StoreConfig{
			Type: StorePinecone,
			Pinecone: PineconeConfig{
				APIKeyEnv:   "PINECONE_API_KEY",
				IndexName:   "ipcs",
				TimeoutSecs: 30,
			},
			Badger: BadgerConfig{Path: "data/transcriptdb"},
		},
		Lock: LockConfig{
			Type:    LockLocal,
			TTLSecs: 30,
		},
		Ingest: IngestConfig{
			Dir:             "data/transcripts",
			Namespace:       core.DefaultNamespace,
			Pattern:         ingestDefaults.Pattern,
			BatchSize:       ingestDefaults.BatchSize,
			DocumentWorkers: ingestDefaults.DocumentWorkers,
			CleaningWorkers: ingestDefaults.CleaningWorkers,
			IDStrategy:      string(ingestDefaults.IDStrategy),
		},
		LogLevel: "info",
	}
}

// ApplyEnv overrides settings from environment variables read through getenv.
// PINECONE_INDEX_NAME, PINECONE_INDEX_HOST and REDIS_ADDR are recognized;
// setting REDIS_ADDR also selects the redis lock.
func (c *AppConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv("PINECONE_INDEX_NAME"); v != "" {
		c.Store.Pinecone.IndexName = v
	}
	if v := getenv("PINECONE_INDEX_HOST"); v != "" {
		c.Store.Pinecone.Host = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Lock.RedisAddr = v
		c.Lock.Type = LockRedis
	}
}

// AIServiceConfig builds the AI provider configuration, reading the API key
// from the configured environment variable.
func (c *AppConfig) AIServiceConfig(getenv func(string) string) (*ai.Config, error) {
	embeddingHost := firstNonEmpty(c.AI.EmbeddingHost, c.AI.Host)
	classifierHost := firstNonEmpty(c.AI.ClassifierHost, c.AI.Host)

	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithClassifierHost(classifierHost),
		ai.WithAPIKey(getenv(c.AI.APIKeyEnv)),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithClassifierModel(c.AI.ClassifierModel),
		ai.WithEmbeddingDimension(c.AI.EmbeddingDimension),
		ai.WithRequestsPerSecond(c.AI.RequestsPerSecond),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithMaxCleanTokens(c.AI.MaxCleanTokens),
	)
	if err := cfg.Validate(); err != nil {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w (set %s)", err, c.AI.APIKeyEnv)
		}
		return nil, err
	}
	return cfg, nil
}

// PineconeStoreConfig builds the Pinecone store configuration, reading the
// API key from the configured environment variable.
func (c *AppConfig) PineconeStoreConfig(getenv func(string) string) (pinecone.Config, error) {
	cfg := pinecone.Config{
		APIKey:          getenv(c.Store.Pinecone.APIKeyEnv),
		IndexName:       c.Store.Pinecone.IndexName,
		Host:            c.Store.Pinecone.Host,
		ControlPlaneURL: c.Store.Pinecone.ControlPlaneURL,
		Timeout:         time.Duration(c.Store.Pinecone.TimeoutSecs) * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		if cfg.APIKey == "" {
			return cfg, fmt.Errorf("%w (set %s)", err, c.Store.Pinecone.APIKeyEnv)
		}
		return cfg, err
	}
	return cfg, nil
}

// IngestionConfig builds the pipeline configuration.
func (c *AppConfig) IngestionConfig() (*ingestion.Config, error) {
	strategy, err := ingestion.ParseIDStrategy(c.Ingest.IDStrategy)
	if err != nil {
		return nil, err
	}
	cfg := ingestion.DefaultConfig()
	cfg.Namespace = c.Ingest.Namespace
	cfg.Pattern = c.Ingest.Pattern
	cfg.BatchSize = c.Ingest.BatchSize
	cfg.DocumentWorkers = c.Ingest.DocumentWorkers
	cfg.CleaningWorkers = c.Ingest.CleaningWorkers
	cfg.IDStrategy = strategy
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the store and lock selections.
func (c *AppConfig) Validate() error {
	switch c.Store.Type {
	case StorePinecone, StoreBadger:
	default:
		return fmt.Errorf("config: unknown store type %q", c.Store.Type)
	}
	switch c.Lock.Type {
	case LockLocal:
	case LockRedis:
		if c.Lock.RedisAddr == "" {
			return errors.New("config: redis lock requires redis_addr or REDIS_ADDR")
		}
	default:
		return fmt.Errorf("config: unknown lock type %q", c.Lock.Type)
	}
	if c.Store.Type == StoreBadger && c.Store.Badger.Path == "" {
		return errors.New("config: badger store requires a path")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
