// Copyright 2026 Hearthlight Labs
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


// Package config loads the engine configuration from a YAML file.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// AIConfig holds endpoint and model settings for the AI provider.
type AIConfig struct {
	EmbeddingHost  string `yaml:"embedding_host"`
	ChatHost       string `yaml:"chat_host"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	MaxEmbedTokens int    `yaml:"max_embed_tokens"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	Overlap      int `yaml:"overlap"`
	MaxChunkSize int `yaml:"max_chunk_size"`
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	BatchSize     int  `yaml:"batch_size"`
	Contextualize bool `yaml:"contextualize"`
}

// RetrievalConfig configures corrective retrieval.
type RetrievalConfig struct {
	SearchType     string `yaml:"search_type"`
	MatchCount     int    `yaml:"match_count"`
	MaxConcurrency int    `yaml:"max_concurrency"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DBPath    string          `yaml:"db_path"`
	AI        AIConfig        `yaml:"ai"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
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
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.DBPath == "" {
		cfg.DBPath = "quiver.db"
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = "http://localhost:11434/v1"
	}
	if cfg.AI.ChatHost == "" {
		cfg.AI.ChatHost = cfg.AI.EmbeddingHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "embeddinggemma"
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = "qwen2.5:3b"
	}
	if cfg.AI.MaxEmbedTokens == 0 {
		cfg.AI.MaxEmbedTokens = 8192
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 200
	}
	if cfg.Chunker.MaxChunkSize == 0 {
		cfg.Chunker.MaxChunkSize = 1500
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 100
	}
	if cfg.Retrieval.SearchType == "" {
		cfg.Retrieval.SearchType = "hybrid"
	}
	if cfg.Retrieval.MatchCount == 0 {
		cfg.Retrieval.MatchCount = 10
	}
	if cfg.Retrieval.MaxConcurrency == 0 {
		cfg.Retrieval.MaxConcurrency = 4
	}
}
