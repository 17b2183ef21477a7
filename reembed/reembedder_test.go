package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlight/quiver/ai/mock"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/storage"
	"github.com/hearthlight/quiver/storage/badger"
)

func newTestChunkRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return chunkRepo
}

func seedChunks(t *testing.T, repo storage.ChunkRepository, n int) {
	t.Helper()
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			Id:         core.ID(i + 1),
			DocumentId: 1,
			Index:      i,
			Content:    "chunk content",
			Vector:     []float32{3, 4},
			Metadata:   map[string]string{"embedding_model": "old-model"},
			Access:     core.AccessMeta{OwnerId: "alice"},
		}
	}
	_, err := repo.AddChunks(context.Background(), chunks...)
	require.NoError(t, err)
}

func TestBatchProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("reembeds and normalizes", func(t *testing.T) {
		repo := newTestChunkRepo(t)
		seedChunks(t, repo, 2)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			vectors := make([][]float32, len(texts))
			for i := range vectors {
				vectors[i] = []float32{3, 4}
			}
			return vectors, nil
		}

		processor := NewBatchProcessor(repo, embedder, "new-model", 3, time.Millisecond)

		chunks, err := repo.GetChunks(ctx, 1, 2)
		require.NoError(t, err)
		require.NoError(t, processor.Process(ctx, chunks))

		updated, err := repo.GetChunk(ctx, 1)
		require.NoError(t, err)
		assert.InDelta(t, 0.6, updated.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, updated.Vector[1], 1e-6)
		assert.Equal(t, "new-model", updated.Metadata["embedding_model"])
		assert.NotEmpty(t, updated.Metadata["embedding_generated_at"])
	})

	t.Run("uses stored context prefix", func(t *testing.T) {
		repo := newTestChunkRepo(t)
		_, err := repo.AddChunks(ctx, &core.Chunk{
			Id:       1,
			Content:  "the passage",
			Metadata: map[string]string{"context_prefix": "situating context"},
			Access:   core.AccessMeta{OwnerId: "alice"},
		})
		require.NoError(t, err)

		var embedded []string
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			embedded = append(embedded, texts...)
			return [][]float32{{1}}, nil
		}

		processor := NewBatchProcessor(repo, embedder, "", 1, time.Millisecond)

		chunks, err := repo.GetChunks(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, processor.Process(ctx, chunks))

		require.Len(t, embedded, 1)
		assert.Equal(t, "situating context\n\nthe passage", embedded[0])
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		repo := newTestChunkRepo(t)
		seedChunks(t, repo, 2)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		}

		processor := NewBatchProcessor(repo, embedder, "", 1, time.Millisecond)

		chunks, err := repo.GetChunks(ctx, 1, 2)
		require.NoError(t, err)
		assert.Error(t, processor.Process(ctx, chunks))
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		repo := newTestChunkRepo(t)
		processor := NewBatchProcessor(repo, mock.NewMockEmbedder(), "", 1, time.Millisecond)
		assert.NoError(t, processor.Process(ctx, nil))
	})
}

func TestChunkIterator_ForEach(t *testing.T) {
	ctx := context.Background()

	t.Run("visits all chunks in batches", func(t *testing.T) {
		repo := newTestChunkRepo(t)
		seedChunks(t, repo, 5)

		iterator := NewChunkIterator(repo, 2)

		var batchSizes []int
		seen := 0
		err := iterator.ForEach(ctx, func(chunks []*core.Chunk) error {
			batchSizes = append(batchSizes, len(chunks))
			seen += len(chunks)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 5, seen)
		assert.Equal(t, []int{2, 2, 1}, batchSizes)
	})

	t.Run("empty store", func(t *testing.T) {
		repo := newTestChunkRepo(t)
		err := NewChunkIterator(repo, 2).ForEach(ctx, func([]*core.Chunk) error {
			t.Fatal("callback should not run for an empty store")
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("stops on callback error", func(t *testing.T) {
		repo := newTestChunkRepo(t)
		seedChunks(t, repo, 4)

		wantErr := errors.New("stop")
		calls := 0
		err := NewChunkIterator(repo, 2).ForEach(ctx, func([]*core.Chunk) error {
			calls++
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 1, calls)
	})
}

func TestReembedder_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("reembeds entire store", func(t *testing.T) {
		repo := newTestChunkRepo(t)
		seedChunks(t, repo, 5)

		config := DefaultConfig()
		config.BatchSize = 2
		config.RetryDelay = time.Millisecond
		config.ModelName = "new-model"

		var out bytes.Buffer
		reembedder := NewReembedder(repo, mock.NewMockEmbedder(), config, &out)
		require.NoError(t, reembedder.Run(ctx))

		for id := core.ID(1); id <= 5; id++ {
			chunk, err := repo.GetChunk(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "new-model", chunk.Metadata["embedding_model"])
		}
		assert.Contains(t, out.String(), "Reembedding complete")
	})

	t.Run("empty store reports and exits", func(t *testing.T) {
		repo := newTestChunkRepo(t)

		var out bytes.Buffer
		reembedder := NewReembedder(repo, mock.NewMockEmbedder(), nil, &out)
		require.NoError(t, reembedder.Run(ctx))
		assert.Contains(t, out.String(), "No chunks found")
	})

	t.Run("embedding failure surfaces after retries", func(t *testing.T) {
		repo := newTestChunkRepo(t)
		seedChunks(t, repo, 2)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("endpoint down")
		}

		config := DefaultConfig()
		config.MaxRetries = 2
		config.RetryDelay = time.Millisecond

		var out bytes.Buffer
		reembedder := NewReembedder(repo, embedder, config, &out)
		assert.Error(t, reembedder.Run(ctx))
	})
}
