package storage

import (
	"context"

	"github.com/hearthlight/quiver/access"
	"github.com/hearthlight/quiver/core"
)

// DocumentRepository provides operations for managing documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocument adds a document to storage.
	// For documents with Id=0, generates a new ID from sequence.
	// Sets CreatedAt/UpdatedAt timestamps.
	// Returns the document with the generated ID and timestamps populated.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// UpdateDocument updates an existing document.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// DeleteDocument removes a document by ID.
	// Child chunks are removed separately via ChunkRepository.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// Close closes the repository and releases resources.
	Close() error
}

// ChunkRepository provides operations for managing chunks and executing
// searches over them. Every search intersects the caller's access filter and
// the optional metadata field filter with the search-specific predicate.
type ChunkRepository interface {
	// AddChunks adds one or more chunks to storage.
	// Chunk IDs must be set by the caller (content-based).
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks of a document, ordered by index.
	GetChunksByDocument(ctx context.Context, documentId core.ID) ([]*core.Chunk, error)

	// UpdateChunks overwrites existing chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes all chunks belonging to a document.
	DeleteChunksByDocument(ctx context.Context, documentId core.ID) error

	// UpdateAccess rewrites the denormalized access fields on every chunk of
	// a document. Must be called on every sharing update so that query-time
	// filtering stays consistent with the document.
	UpdateAccess(ctx context.Context, documentId core.ID, meta core.AccessMeta) error

	// ListChunkIds returns the IDs of all stored chunks.
	ListChunkIds(ctx context.Context) ([]core.ID, error)

	// SemanticSearch finds the k chunks most similar to the vector, restricted
	// to chunks the filter matches and whose metadata satisfies fieldFilter.
	// Results are ordered by similarity descending.
	SemanticSearch(ctx context.Context, vector []float32, k int, filter *access.Filter, fieldFilter map[string]string) ([]core.SearchResult, error)

	// TextSearch finds the k chunks most relevant to the query terms under the
	// same restrictions. Relevance is a rank-based score and may exceed 1.
	TextSearch(ctx context.Context, query string, k int, filter *access.Filter, fieldFilter map[string]string) ([]core.SearchResult, error)

	// Close closes the repository and releases resources.
	Close() error
}
