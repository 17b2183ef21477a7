package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/hearthlight/quiver/ai"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/storage"
)

// BatchProcessor handles embedding generation for batches of chunks.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	modelName      string
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// modelName: recorded on each chunk's metadata when non-empty
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, modelName string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		modelName:      modelName,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of chunks and updates them in the
// store. A chunk contextualized at ingestion keeps its stored prefix so the
// new vector is built from the same text as the old one. Vectors are
// normalized after embedding to ensure compatibility with cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
		if prefix := chunk.Metadata["context_prefix"]; prefix != "" {
			texts[i] = prefix + "\n\n" + chunk.Content
		}
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range chunks {
		chunks[i].Vector = NormalizeVector(embeddings[i])
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]string)
		}
		if bp.modelName != "" {
			chunks[i].Metadata["embedding_model"] = bp.modelName
		}
		chunks[i].Metadata["embedding_generated_at"] = now
	}

	if _, err := bp.repo.UpdateChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}

	return nil
}
