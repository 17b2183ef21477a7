package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "quiver.db", cfg.DBPath)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, cfg.AI.EmbeddingHost, cfg.AI.ChatHost)
	assert.Equal(t, "embeddinggemma", cfg.AI.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.AI.ChatModel)
	assert.Equal(t, 8192, cfg.AI.MaxEmbedTokens)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, "hybrid", cfg.Retrieval.SearchType)
	assert.Equal(t, 10, cfg.Retrieval.MatchCount)
	assert.Equal(t, 4, cfg.Retrieval.MaxConcurrency)
}

func TestLoad_ParsesFile(t *testing.T) {
	content := `
db_path: /var/lib/quiver/data
ai:
  embedding_host: http://embeddings:8080/v1
  chat_host: http://chat:8080/v1
  embedding_model: nomic-embed-text
chunker:
  chunk_size: 512
  overlap: 64
retrieval:
  search_type: semantic
  match_count: 5
`
	path := filepath.Join(t.TempDir(), "quiver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/quiver/data", cfg.DBPath)
	assert.Equal(t, "http://embeddings:8080/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, "http://chat:8080/v1", cfg.AI.ChatHost)
	assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
	assert.Equal(t, 512, cfg.Chunker.ChunkSize)
	assert.Equal(t, 64, cfg.Chunker.Overlap)
	assert.Equal(t, "semantic", cfg.Retrieval.SearchType)
	assert.Equal(t, 5, cfg.Retrieval.MatchCount)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	content := `
ai:
  embedding_host: http://embeddings:8080/v1
`
	path := filepath.Join(t.TempDir(), "quiver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Unset fields take their defaults; chat host follows the embedding host.
	assert.Equal(t, "http://embeddings:8080/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, "http://embeddings:8080/v1", cfg.AI.ChatHost)
	assert.Equal(t, "quiver.db", cfg.DBPath)
	assert.Equal(t, "hybrid", cfg.Retrieval.SearchType)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
