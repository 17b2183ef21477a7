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


package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/hearthlight/quiver/access"
	"github.com/hearthlight/quiver/ai"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/search"
)

// keepThreshold is the minimum grading score a chunk must reach to survive.
// Grading is binary so any chunk graded "yes" passes and any other chunk
// does not.
const keepThreshold = 0.5

// Retriever runs the corrective retrieval pipeline over a Searcher and a
// chat model.
type Retriever struct {
	searcher   *search.Searcher
	chat       ai.ChatModel
	searchType search.Type
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithSearchType sets the search strategy used for sub-query retrieval.
// Default is hybrid.
func WithSearchType(t search.Type) Option {
	return func(r *Retriever) error {
		r.searchType = t
		return nil
	}
}

// WithMaxConcurrency bounds concurrent sub-query retrieval and grading calls.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithMaxConcurrency(size int) Option {
	return func(r *Retriever) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new corrective retriever.
func NewRetriever(searcher *search.Searcher, chat ai.ChatModel, opts ...Option) (*Retriever, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if chat == nil {
		return nil, ErrChatModelRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Retriever{
		searcher:   searcher,
		chat:       chat,
		searchType: search.TypeHybrid,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Release()
			return nil, optErr
		}
	}

	return r, nil
}

// Release releases the worker pool.
// The retriever should not be used after calling Release.
func (r *Retriever) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Result is the outcome of a corrective retrieval run.
type Result struct {
	Answer    string
	Sources   []core.SearchResult
	Citations []core.Citation
}

// Answer runs the full pipeline for a query and returns a synthesized answer
// with the chunks and citations backing it.
func (r *Retriever) Answer(ctx context.Context, query string, matchCount int, filter *access.Filter, fieldFilter map[string]string) (*Result, error) {
	return r.AnswerWithMonitor(ctx, query, matchCount, filter, fieldFilter, nil)
}

// AnswerWithMonitor is Answer with observation hooks.
func (r *Retriever) AnswerWithMonitor(ctx context.Context, query string, matchCount int, filter *access.Filter, fieldFilter map[string]string, monitor Monitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	decompose := r.decideDecompose(ctx, query)
	monitor.AfterDecomposeDecision(decompose)

	subQueries := []string{query}
	if decompose {
		subQueries = r.decomposeQuery(ctx, query)
	}
	monitor.AfterDecompose(subQueries)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	retrieved, err := r.retrieveSubQueries(ctx, subQueries, matchCount, filter, fieldFilter, monitor)
	if err != nil {
		return nil, err
	}

	kept := r.gradeResults(ctx, query, retrieved, monitor)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	answer, err := r.buildAnswer(ctx, query, subQueries, kept)
	if err != nil {
		return nil, err
	}
	monitor.AfterSynthesis(answer)

	result := &Result{
		Answer:    answer,
		Sources:   kept,
		Citations: BuildCitations(kept),
	}
	monitor.Finish(result)
	return result, nil
}

// RewriteQuery asks the chat model to restate a terse query as a fuller
// search query. On any failure the original query is returned unchanged.
func (r *Retriever) RewriteQuery(ctx context.Context, query string) string {
	response, err := r.chat.Complete(ctx, rewriteSystemPrompt, rewriteUserPrompt(query))
	if err != nil {
		r.logger.Warn("query rewrite failed, using original query", "query", query, "err", err)
		return query
	}
	rewritten := strings.TrimSpace(response)
	if rewritten == "" {
		return query
	}
	return rewritten
}

// decideDecompose asks whether the query should be broken into sub-questions.
// A chat failure degrades to "no".
func (r *Retriever) decideDecompose(ctx context.Context, query string) bool {
	response, err := r.chat.Complete(ctx, decideDecomposeSystemPrompt, decideDecomposeUserPrompt(query))
	if err != nil {
		r.logger.Warn("decomposition decision failed, skipping decomposition", "query", query, "err", err)
		return false
	}
	return parseYesNo(response)
}

// decomposeQuery asks for a numbered list of sub-questions. A chat failure or
// an unparseable response degrades to the original query as the sole
// sub-query.
func (r *Retriever) decomposeQuery(ctx context.Context, query string) []string {
	response, err := r.chat.Complete(ctx, decomposeSystemPrompt, decomposeUserPrompt(query))
	if err != nil {
		r.logger.Warn("decomposition failed, using original query", "query", query, "err", err)
		return []string{query}
	}

	subQueries := parseNumberedList(response)
	if len(subQueries) == 0 {
		r.logger.Warn("decomposition produced no sub-queries, using original query", "query", query)
		return []string{query}
	}
	return subQueries
}

// retrieveSubQueries runs the configured search strategy for each sub-query
// concurrently, bounded by the worker pool. Result ordering follows sub-query
// ordering regardless of completion order.
func (r *Retriever) retrieveSubQueries(ctx context.Context, subQueries []string, matchCount int, filter *access.Filter, fieldFilter map[string]string, monitor Monitor) ([]core.SearchResult, error) {
	perQuery := make([][]core.SearchResult, len(subQueries))
	errs := make([]error, len(subQueries))

	var wg sync.WaitGroup
	for i, subQuery := range subQueries {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			perQuery[i], errs[i] = r.searcher.Search(ctx, r.searchType, subQuery, matchCount, filter, fieldFilter)
		}
		if err := r.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var combined []core.SearchResult
	for i, subQuery := range subQueries {
		if errs[i] != nil {
			r.logger.Warn("sub-query retrieval failed", "subQuery", subQuery, "err", errs[i])
			continue
		}
		monitor.AfterSubQuerySearch(subQuery, perQuery[i])
		combined = append(combined, perQuery[i]...)
	}
	return combined, nil
}

// gradeResults grades every retrieved chunk against the original query and
// keeps the ones graded relevant. Grading calls run concurrently, bounded by
// the worker pool, but kept chunks preserve their retrieval order. A failed
// grading call drops the chunk it was grading.
func (r *Retriever) gradeResults(ctx context.Context, query string, results []core.SearchResult, monitor Monitor) []core.SearchResult {
	scores := make([]float32, len(results))

	var wg sync.WaitGroup
	for i, result := range results {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			scores[i] = r.gradeOne(ctx, query, result)
		}
		if err := r.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	kept := make([]core.SearchResult, 0, len(results))
	for i, result := range results {
		if scores[i] >= keepThreshold {
			kept = append(kept, result)
		}
	}
	monitor.AfterGrading(kept, len(results)-len(kept))
	return kept
}

func (r *Retriever) gradeOne(ctx context.Context, query string, result core.SearchResult) float32 {
	response, err := r.chat.Complete(ctx, gradeSystemPrompt, gradeUserPrompt(query, result.Content))
	if err != nil {
		r.logger.Warn("grading call failed, dropping chunk", "chunkId", result.ChunkId, "err", err)
		return 0.0
	}
	if parseYesNo(response) {
		return 1.0
	}
	return 0.0
}

// buildAnswer produces the final answer text. With multiple sub-queries the
// kept chunks are synthesized by the chat model and a failure there surfaces
// to the caller. With a single sub-query the kept chunk contents are used
// directly.
func (r *Retriever) buildAnswer(ctx context.Context, query string, subQueries []string, kept []core.SearchResult) (string, error) {
	if len(subQueries) <= 1 {
		contents := make([]string, len(kept))
		for i, result := range kept {
			contents[i] = result.Content
		}
		return strings.Join(contents, "\n\n"), nil
	}

	answer, err := r.chat.Complete(ctx, synthesizeSystemPrompt, synthesizeUserPrompt(query, kept))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	return strings.TrimSpace(answer), nil
}
