package search

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hearthlight/quiver/access"
	"github.com/hearthlight/quiver/ai"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/storage"
)

const defaultSubSearchTimeout = 10 * time.Second

// Searcher provides the three search strategies over stored chunks. Every
// strategy composes the caller's access filter and the optional metadata
// field filter with its own predicate before touching the store.
type Searcher struct {
	chunks           storage.ChunkRepository
	embedder         ai.Embedder
	subSearchTimeout time.Duration
	logger           *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithSubSearchTimeout bounds each hybrid sub-search independently.
// A timed-out sub-search is treated like any other sub-search failure.
func WithSubSearchTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d > 0 {
			s.subSearchTimeout = d
		}
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:           chunks,
		embedder:         embedder,
		subSearchTimeout: defaultSubSearchTimeout,
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search dispatches to the strategy named by searchType.
func (s *Searcher) Search(ctx context.Context, searchType Type, query string, matchCount int, filter *access.Filter, fieldFilter map[string]string) ([]core.SearchResult, error) {
	switch searchType {
	case TypeSemantic:
		return s.SemanticSearch(ctx, query, matchCount, filter, fieldFilter)
	case TypeText:
		return s.TextSearch(ctx, query, matchCount, filter, fieldFilter)
	default:
		return s.HybridSearch(ctx, query, matchCount, filter, fieldFilter)
	}
}

// SemanticSearch embeds the query and returns the top matchCount chunks by
// vector similarity. An index that is not ready yields empty results, not an
// error.
func (s *Searcher) SemanticSearch(ctx context.Context, query string, matchCount int, filter *access.Filter, fieldFilter map[string]string) ([]core.SearchResult, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	results, err := s.chunks.SemanticSearch(ctx, vector, matchCount, filter, fieldFilter)
	if err != nil {
		if errors.Is(err, storage.ErrIndexNotReady) {
			s.logger.Warn("semantic index not ready, returning empty results", "query", query)
			return []core.SearchResult{}, nil
		}
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	return results, nil
}

// TextSearch returns the top matchCount chunks by keyword relevance.
func (s *Searcher) TextSearch(ctx context.Context, query string, matchCount int, filter *access.Filter, fieldFilter map[string]string) ([]core.SearchResult, error) {
	results, err := s.chunks.TextSearch(ctx, query, matchCount, filter, fieldFilter)
	if err != nil {
		if errors.Is(err, storage.ErrIndexNotReady) {
			s.logger.Warn("text index not ready, returning empty results", "query", query)
			return []core.SearchResult{}, nil
		}
		s.logger.Error("error querying for keyword matches", "err", err)
		return nil, err
	}
	return results, nil
}

// HybridSearch runs semantic and text search concurrently and fuses the two
// result sets. When one sub-search fails the other's results are returned;
// when both fail the error is logged and an empty list is returned. The
// caller never sees a hybrid search error.
func (s *Searcher) HybridSearch(ctx context.Context, query string, matchCount int, filter *access.Filter, fieldFilter map[string]string) ([]core.SearchResult, error) {
	return s.HybridSearchWithMonitor(ctx, query, matchCount, filter, fieldFilter, nil)
}

// HybridSearchWithMonitor is HybridSearch with observation hooks.
func (s *Searcher) HybridSearchWithMonitor(ctx context.Context, query string, matchCount int, filter *access.Filter, fieldFilter map[string]string, monitor Monitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	var (
		wg              sync.WaitGroup
		semanticResults []core.SearchResult
		textResults     []core.SearchResult
		semanticErr     error
		textErr         error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		subCtx, cancel := context.WithTimeout(ctx, s.subSearchTimeout)
		defer cancel()
		semanticResults, semanticErr = s.SemanticSearch(subCtx, query, matchCount, filter, fieldFilter)
	}()
	go func() {
		defer wg.Done()
		subCtx, cancel := context.WithTimeout(ctx, s.subSearchTimeout)
		defer cancel()
		textResults, textErr = s.TextSearch(subCtx, query, matchCount, filter, fieldFilter)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if semanticErr != nil {
		s.logger.Warn("semantic sub-search failed, falling back to text results", "query", query, "err", semanticErr)
		monitor.SubSearchFailed(TypeSemantic, semanticErr)
		semanticResults = nil
	} else {
		monitor.AfterSemanticSearch(semanticResults)
	}
	if textErr != nil {
		s.logger.Warn("text sub-search failed, falling back to semantic results", "query", query, "err", textErr)
		monitor.SubSearchFailed(TypeText, textErr)
		textResults = nil
	}
	if textErr == nil {
		monitor.AfterTextSearch(textResults)
	}

	if semanticErr != nil && textErr != nil {
		s.logger.Error("both hybrid sub-searches failed", "query", query,
			"semanticErr", semanticErr, "textErr", textErr)
		monitor.Finish(nil)
		return []core.SearchResult{}, nil
	}

	merged := mergeResults(semanticResults, textResults, matchCount)
	monitor.Finish(merged)
	return merged, nil
}

// mergeResults fuses the two result sets, de-duplicating by chunk ID and
// keeping the higher of the two scores for chunks present in both. The merged
// list is sorted by score descending with ties broken by chunk ID ascending,
// then truncated to matchCount.
func mergeResults(semantic, text []core.SearchResult, matchCount int) []core.SearchResult {
	byChunk := make(map[core.ID]core.SearchResult, len(semantic)+len(text))

	for _, result := range semantic {
		byChunk[result.ChunkId] = result
	}
	for _, result := range text {
		if existing, ok := byChunk[result.ChunkId]; !ok || result.Similarity > existing.Similarity {
			byChunk[result.ChunkId] = result
		}
	}

	merged := make([]core.SearchResult, 0, len(byChunk))
	for _, result := range byChunk {
		merged = append(merged, result)
	}

	slices.SortFunc(merged, func(a, b core.SearchResult) int {
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

	if len(merged) > matchCount {
		merged = merged[:matchCount]
	}
	return merged
}
