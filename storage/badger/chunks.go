package badger

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/hearthlight/quiver/access"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Both searches are brute-force scans over the chunk records with the access
// filter applied to the denormalized access fields of every candidate.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// AddChunks adds one or more chunks to storage.
// Chunk IDs must already be set (content-based).
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.Id)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			indexKey := makeChunkDocumentKey(chunk.DocumentId, chunk.Id)
			if err := tx.Set(indexKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChunks retrieves multiple chunks by their IDs.
// Missing chunks are skipped without error.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := r.readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetChunksByDocument retrieves all chunks of a document, ordered by index.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, documentId core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialChunkDocumentKey(documentId)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunkId core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkId, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := r.readChunk(tx, makeChunkKey(chunkId))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Chunk) int {
		return a.Index - b.Index
	})
	return results, nil
}

// UpdateChunks overwrites existing chunks.
func (r *ChunkRepository) UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.Id)

			old, err := r.readChunk(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// DeleteChunksByDocument removes all chunks belonging to a document.
func (r *ChunkRepository) DeleteChunksByDocument(ctx context.Context, documentId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialChunkDocumentKey(documentId)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)

		var chunkIds []core.ID
		var indexKeys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunkId core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkId, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			chunkIds = append(chunkIds, chunkId)
			indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for i, chunkId := range chunkIds {
			if err := tx.Delete(makeChunkKey(chunkId)); err != nil {
				return err
			}
			if err := tx.Delete(indexKeys[i]); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// UpdateAccess rewrites the denormalized access fields on every chunk of a
// document. Called on every sharing update to keep query-time filtering
// consistent with the document.
func (r *ChunkRepository) UpdateAccess(ctx context.Context, documentId core.ID, meta core.AccessMeta) error {
	chunks, err := r.GetChunksByDocument(ctx, documentId)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			chunk.Access = meta
			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ListChunkIds returns the IDs of all stored chunks.
func (r *ChunkRepository) ListChunkIds(ctx context.Context) ([]core.ID, error) {
	var ids []core.ID
	err := r.scanChunks(func(chunk *core.Chunk) error {
		ids = append(ids, chunk.Id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

// SemanticSearch finds the k chunks most similar to the vector among those the
// access filter and field filter admit. Results are ordered by cosine
// similarity descending; ties break on chunk ID for determinism.
func (r *ChunkRepository) SemanticSearch(ctx context.Context, vector []float32, k int, filter *access.Filter, fieldFilter map[string]string) ([]core.SearchResult, error) {
	if k <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []core.SearchResult
	err := r.scanChunks(func(chunk *core.Chunk) error {
		if len(chunk.Vector) == 0 {
			return nil
		}
		if filter != nil && !filter.Matches(chunk.Access) {
			return nil
		}
		if !matchesFieldFilter(chunk.Metadata, fieldFilter) {
			return nil
		}

		similarity := cosineSimilarity(vector, chunk.Vector)
		if similarity <= 0 {
			return nil
		}

		results = append(results, chunkToResult(chunk, similarity))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sortAndTruncate(results, k), nil
}

// TextSearch finds the k chunks most relevant to the query terms among those
// the access filter and field filter admit. The score is the summed term
// frequency of matched query terms, an unbounded rank-based value.
func (r *ChunkRepository) TextSearch(ctx context.Context, query string, k int, filter *access.Filter, fieldFilter map[string]string) ([]core.SearchResult, error) {
	if k <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	queryTerms := tokenizeAndFilter(query)
	if len(queryTerms) == 0 {
		return []core.SearchResult{}, nil
	}

	var results []core.SearchResult
	err := r.scanChunks(func(chunk *core.Chunk) error {
		if filter != nil && !filter.Matches(chunk.Access) {
			return nil
		}
		if !matchesFieldFilter(chunk.Metadata, fieldFilter) {
			return nil
		}

		score := keywordScore(queryTerms, termFrequencies(chunk.Content))
		if score <= 0 {
			return nil
		}

		results = append(results, chunkToResult(chunk, score))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sortAndTruncate(results, k), nil
}

// scanChunks iterates every chunk record in the store.
func (r *ChunkRepository) scanChunks(fn func(chunk *core.Chunk) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readChunk reads and unmarshals a chunk, returning nil when absent.
func (r *ChunkRepository) readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}

// matchesFieldFilter checks metadata equality for every filter entry.
// Keys may carry an optional "metadata." prefix.
func matchesFieldFilter(metadata, fieldFilter map[string]string) bool {
	for key, want := range fieldFilter {
		key = strings.TrimPrefix(key, "metadata.")
		if metadata[key] != want {
			return false
		}
	}
	return true
}

// chunkToResult builds an ephemeral search result from a stored chunk.
func chunkToResult(chunk *core.Chunk, score float32) core.SearchResult {
	return core.SearchResult{
		ChunkId:    chunk.Id,
		DocumentId: chunk.DocumentId,
		Content:    chunk.Content,
		Similarity: score,
		Metadata:   chunk.Metadata,
	}
}

// sortAndTruncate orders results by score descending, breaking ties by chunk
// ID ascending, and truncates to k entries.
func sortAndTruncate(results []core.SearchResult, k int) []core.SearchResult {
	slices.SortFunc(results, func(a, b core.SearchResult) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		if a.ChunkId < b.ChunkId {
			return -1
		}
		if a.ChunkId > b.ChunkId {
			return 1
		}
		return 0
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// cosineSimilarity calculates the cosine similarity of two vectors.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float32
	for i := 0; i < minLen; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
