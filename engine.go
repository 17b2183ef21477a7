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


package quiver

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hearthlight/quiver/access"
	"github.com/hearthlight/quiver/ai"
	"github.com/hearthlight/quiver/ai/openai"
	"github.com/hearthlight/quiver/chunker"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/ingest"
	"github.com/hearthlight/quiver/retrieve"
	"github.com/hearthlight/quiver/search"
	"github.com/hearthlight/quiver/storage"
	"github.com/hearthlight/quiver/storage/badger"
)

// Engine is the top-level entry point: it owns the store, the AI provider,
// and the ingestion, search, and retrieval components built on them.
type Engine struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	provider  ai.Provider
	pipeline  *ingest.Pipeline
	searcher  *search.Searcher
	retriever *retrieve.Retriever
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig       *ai.Config
	provider       ai.Provider
	chunkerCfg     chunker.Config
	contextualize  bool
	searchType     search.Type
	maxConcurrency int
	batchSize      int
	inMemory       bool
	logger         *slog.Logger
}

// WithAIConfig sets the AI endpoint configuration.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithProvider supplies a pre-built AI provider, bypassing the OpenAI
// provider construction. Used mainly for testing with mocks.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithChunkerConfig sets the chunking configuration.
func WithChunkerConfig(cfg chunker.Config) EngineOption {
	return func(o *engineOptions) {
		o.chunkerCfg = cfg
	}
}

// WithContextualization enables chunk contextualization during ingestion.
func WithContextualization(enabled bool) EngineOption {
	return func(o *engineOptions) {
		o.contextualize = enabled
	}
}

// WithSearchType sets the search strategy used by corrective retrieval.
// Default is hybrid.
func WithSearchType(t search.Type) EngineOption {
	return func(o *engineOptions) {
		o.searchType = t
	}
}

// WithMaxConcurrency bounds concurrent retrieval and grading calls.
func WithMaxConcurrency(n int) EngineOption {
	return func(o *engineOptions) {
		o.maxConcurrency = n
	}
}

// WithEmbedBatchSize sets how many chunks are embedded per request during
// ingestion.
func WithEmbedBatchSize(n int) EngineOption {
	return func(o *engineOptions) {
		o.batchSize = n
	}
}

// WithInMemory opens the store in memory. Nothing is persisted.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewEngine opens the store at filePath and wires up the full engine.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:   ai.DefaultConfig(),
		chunkerCfg: chunker.DefaultConfig(),
		searchType: search.TypeHybrid,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunks := badger.NewChunkRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	pipelineOpts := []ingest.Option{
		ingest.WithChunkerConfig(options.chunkerCfg),
		ingest.WithEmbeddingModelName(options.aiConfig.EmbeddingModel),
		ingest.WithLogger(options.logger),
	}
	if options.batchSize > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithBatchSize(options.batchSize))
	}
	if options.contextualize {
		pipelineOpts = append(pipelineOpts, ingest.WithContextualization(provider.ChatModel()))
	}

	pipeline, err := ingest.NewPipeline(documents, chunks, provider.Embedder(), pipelineOpts...)
	if err != nil {
		provider.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(chunks, provider.Embedder(), search.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	retrieverOpts := []retrieve.Option{
		retrieve.WithSearchType(options.searchType),
		retrieve.WithLogger(options.logger),
	}
	if options.maxConcurrency > 0 {
		retrieverOpts = append(retrieverOpts, retrieve.WithMaxConcurrency(options.maxConcurrency))
	}

	retriever, err := retrieve.NewRetriever(searcher, provider.ChatModel(), retrieverOpts...)
	if err != nil {
		provider.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:   backend,
		documents: documents,
		chunks:    chunks,
		provider:  provider,
		pipeline:  pipeline,
		searcher:  searcher,
		retriever: retriever,
		logger:    options.logger,
	}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	e.retriever.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.documents.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := e.chunks.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository exposes the underlying document repository.
func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.documents
}

// ChunkRepository exposes the underlying chunk repository.
func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunks
}

// IngestRequest holds the fields of a document to ingest.
type IngestRequest struct {
	Content    string
	Title      string
	Source     string
	Metadata   map[string]string
	IsPublic   bool
	SharedWith []string
	GroupIds   []string
}

// Ingest stores a document owned by the caller and makes its chunks
// searchable.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest, caller core.Caller) (*core.Document, error) {
	logger := e.requestLogger("ingest")
	logger.Info("ingesting document", "title", req.Title, "owner", caller.Id)

	return e.pipeline.Ingest(ctx, ingest.Input{
		Content:  req.Content,
		Title:    req.Title,
		Source:   req.Source,
		Metadata: req.Metadata,
		Access: core.AccessMeta{
			OwnerId:    caller.Id,
			OwnerLabel: caller.Label,
			IsPublic:   req.IsPublic,
			SharedWith: req.SharedWith,
			GroupIds:   req.GroupIds,
		},
	})
}

// Search runs a single search pass with the given strategy, returning only
// chunks visible to the caller.
func (e *Engine) Search(ctx context.Context, searchType search.Type, query string, matchCount int, fieldFilter map[string]string, caller core.Caller) ([]core.SearchResult, error) {
	if err := core.ValidateQuery(query, matchCount); err != nil {
		return nil, err
	}

	logger := e.requestLogger("search")
	logger.Info("searching", "type", searchType, "query", query, "caller", caller.Id)

	filter := access.BuildFilter(caller)
	return e.searcher.Search(ctx, searchType, query, matchCount, filter, fieldFilter)
}

// Query runs the corrective retrieval pipeline and returns a synthesized
// answer with sources and citations, scoped to what the caller can see.
func (e *Engine) Query(ctx context.Context, query string, matchCount int, fieldFilter map[string]string, caller core.Caller) (*retrieve.Result, error) {
	if err := core.ValidateQuery(query, matchCount); err != nil {
		return nil, err
	}

	logger := e.requestLogger("query")
	logger.Info("answering query", "query", query, "caller", caller.Id)

	filter := access.BuildFilter(caller)
	return e.retriever.Answer(ctx, query, matchCount, filter, fieldFilter)
}

// RewriteQuery restates a terse query as a fuller search query. On failure
// the original query is returned unchanged.
func (e *Engine) RewriteQuery(ctx context.Context, query string) string {
	return e.retriever.RewriteQuery(ctx, query)
}

// GetDocument fetches a document by ID. A document the caller cannot see is
// reported as not found.
func (e *Engine) GetDocument(ctx context.Context, id core.ID, caller core.Caller) (*core.Document, error) {
	document, err := e.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(document.Access, caller) {
		return nil, storage.ErrNotFound
	}
	return document, nil
}

// Share updates a document's sharing fields and propagates the change to its
// chunks. Only the owner or an admin may share; for anyone else the document
// is reported as not found.
func (e *Engine) Share(ctx context.Context, id core.ID, isPublic *bool, sharedWith, groupIds []string, caller core.Caller) (*core.Document, error) {
	document, err := e.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && document.Access.OwnerId != caller.Id {
		return nil, storage.ErrNotFound
	}

	document.Access = access.ApplySharing(document.Access, isPublic, sharedWith, groupIds)

	updated, err := e.documents.UpdateDocument(ctx, document)
	if err != nil {
		return nil, err
	}
	if err := e.chunks.UpdateAccess(ctx, id, updated.Access); err != nil {
		return nil, err
	}

	e.requestLogger("share").Info("updated document sharing", "documentId", id, "caller", caller.Id)
	return updated, nil
}

// Delete removes a document and all its chunks. Only the owner or an admin
// may delete; for anyone else the document is reported as not found.
func (e *Engine) Delete(ctx context.Context, id core.ID, caller core.Caller) error {
	document, err := e.documents.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin && document.Access.OwnerId != caller.Id {
		return storage.ErrNotFound
	}

	if err := e.chunks.DeleteChunksByDocument(ctx, id); err != nil {
		return err
	}
	if err := e.documents.DeleteDocument(ctx, id); err != nil {
		return err
	}

	e.requestLogger("delete").Info("deleted document", "documentId", id, "caller", caller.Id)
	return nil
}

func (e *Engine) requestLogger(operation string) *slog.Logger {
	return e.logger.With("requestId", uuid.NewString(), "operation", operation)
}
