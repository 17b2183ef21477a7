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


package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/hearthlight/quiver/ai"
	"github.com/hearthlight/quiver/chunker"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/storage"
)

const defaultBatchSize = 100

// ProgressFunc is called after each embedding batch completes.
type ProgressFunc func(batch, totalBatches int)

// Pipeline ingests documents: validate, persist, chunk, optionally
// contextualize, embed, and persist chunks.
type Pipeline struct {
	documents  storage.DocumentRepository
	chunks     storage.ChunkRepository
	embedder   ai.Embedder
	ctxer      *contextualizer
	chunkerCfg chunker.Config
	batchSize  int
	modelName  string
	progress   ProgressFunc
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunkerConfig sets the chunking configuration.
func WithChunkerConfig(cfg chunker.Config) Option {
	return func(p *Pipeline) error {
		p.chunkerCfg = cfg
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per request.
// Default is 100.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.batchSize = size
		}
		return nil
	}
}

// WithContextualization enables chunk contextualization using the given chat
// model. Each chunk gets a short situating prefix generated from the full
// document before embedding. Prefix generation failures are logged and the
// chunk is embedded without a prefix.
func WithContextualization(chat ai.ChatModel) Option {
	return func(p *Pipeline) error {
		if chat != nil {
			p.ctxer = &contextualizer{chat: chat}
		}
		return nil
	}
}

// WithEmbeddingModelName records the embedding model name on each chunk's
// metadata so stale chunks can be found later.
func WithEmbeddingModelName(name string) Option {
	return func(p *Pipeline) error {
		p.modelName = name
		return nil
	}
}

// WithProgressFunc sets a callback invoked after each embedding batch.
func WithProgressFunc(fn ProgressFunc) Option {
	return func(p *Pipeline) error {
		p.progress = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(documents storage.DocumentRepository, chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		documents:  documents,
		chunks:     chunks,
		embedder:   embedder,
		chunkerCfg: chunker.DefaultConfig(),
		batchSize:  defaultBatchSize,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Input holds the fields of a document to ingest.
type Input struct {
	Content  string
	Title    string
	Source   string
	Metadata map[string]string
	Access   core.AccessMeta
}

// Ingest validates and persists a document, then chunks, embeds, and persists
// its chunks. The returned document carries its assigned ID.
func (p *Pipeline) Ingest(ctx context.Context, input Input) (*core.Document, error) {
	document := &core.Document{
		Title:    input.Title,
		Source:   input.Source,
		Content:  input.Content,
		Metadata: maps.Clone(input.Metadata),
		Access:   input.Access,
	}
	if err := core.ValidateDocument(document); err != nil {
		return nil, err
	}

	// Persist the document before its chunks. A failed embedding run must
	// never leave orphaned chunks.
	added, err := p.documents.AddDocument(ctx, document)
	if err != nil {
		return nil, err
	}

	chunks := chunker.Chunk(input.Content, input.Title, input.Source, input.Metadata, p.chunkerCfg)
	if len(chunks) == 0 {
		return added, nil
	}

	embedTexts := p.prepareEmbedTexts(ctx, input.Content, chunks)

	if err := p.embedChunks(ctx, chunks, embedTexts); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, chunk := range chunks {
		chunk.DocumentId = added.Id
		chunk.Access = added.Access
		chunk.Id = core.IDFromContent(fmt.Sprintf("%d:%d:%s", added.Id, chunk.Index, chunk.Content))
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]string)
		}
		if p.modelName != "" {
			chunk.Metadata["embedding_model"] = p.modelName
		}
		chunk.Metadata["embedding_generated_at"] = now
	}

	if _, err := p.chunks.AddChunks(ctx, chunks...); err != nil {
		return nil, err
	}

	p.logger.Info("ingested document", "documentId", added.Id, "title", added.Title, "chunks", len(chunks))
	return added, nil
}

// prepareEmbedTexts returns the text to embed for each chunk. With
// contextualization enabled the text is the generated prefix followed by the
// chunk content; the stored chunk content is never modified.
func (p *Pipeline) prepareEmbedTexts(ctx context.Context, document string, chunks []*core.Chunk) []string {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
		if p.ctxer == nil {
			continue
		}

		prefix, ok := p.ctxer.contextualize(ctx, document, chunk.Content)
		if !ok {
			p.logger.Warn("chunk contextualization failed, embedding without prefix", "chunkIndex", chunk.Index)
			continue
		}

		texts[i] = prefix + "\n\n" + chunk.Content
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]string)
		}
		chunk.Metadata["context_prefix"] = prefix
	}
	return texts
}

// embedChunks embeds the prepared texts in sequential batches and assigns the
// vectors onto the chunks.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk, texts []string) error {
	totalBatches := (len(texts) + p.batchSize - 1) / p.batchSize

	for batch := 0; batch < totalBatches; batch++ {
		start := batch * p.batchSize
		end := min(start+p.batchSize, len(texts))

		vectors, err := p.embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return err
		}
		for i, vector := range vectors {
			chunks[start+i].Vector = vector
		}

		if p.progress != nil {
			p.progress(batch+1, totalBatches)
		}
	}
	return nil
}
