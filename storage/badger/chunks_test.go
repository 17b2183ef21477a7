package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlight/quiver/access"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/storage"
)

func testChunk(id, docId core.ID, index int, content string, vector []float32, meta core.AccessMeta) *core.Chunk {
	return &core.Chunk{
		Id:         id,
		DocumentId: docId,
		Index:      index,
		Content:    content,
		Vector:     vector,
		StartChar:  0,
		EndChar:    len(content),
		Metadata:   map[string]string{"document_title": "Doc"},
		Access:     meta,
	}
}

func TestChunkBasics(t *testing.T) {
	_, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	owner := core.AccessMeta{OwnerId: "alice"}
	chunk := testChunk(10, 1, 0, "first chunk", []float32{1, 0}, owner)

	_, err := chunkRepo.AddChunks(ctx, chunk)
	require.NoError(t, err)

	got, err := chunkRepo.GetChunk(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "first chunk", got.Content)
	assert.Equal(t, core.ID(1), got.DocumentId)

	_, err = chunkRepo.GetChunk(ctx, 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetChunks_SkipsMissing(t *testing.T) {
	_, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	owner := core.AccessMeta{OwnerId: "alice"}
	_, err := chunkRepo.AddChunks(ctx,
		testChunk(1, 1, 0, "one", nil, owner),
		testChunk(2, 1, 1, "two", nil, owner),
	)
	require.NoError(t, err)

	chunks, err := chunkRepo.GetChunks(ctx, 1, 999, 2)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestGetChunksByDocument_OrderedByIndex(t *testing.T) {
	_, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	owner := core.AccessMeta{OwnerId: "alice"}
	_, err := chunkRepo.AddChunks(ctx,
		testChunk(30, 5, 2, "third", nil, owner),
		testChunk(10, 5, 0, "first", nil, owner),
		testChunk(20, 5, 1, "second", nil, owner),
		testChunk(99, 6, 0, "other document", nil, owner),
	)
	require.NoError(t, err)

	chunks, err := chunkRepo.GetChunksByDocument(ctx, 5)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "first", chunks[0].Content)
	assert.Equal(t, "second", chunks[1].Content)
	assert.Equal(t, "third", chunks[2].Content)
}

func TestUpdateChunks_NotFound(t *testing.T) {
	_, chunkRepo := newTestRepos(t)

	_, err := chunkRepo.UpdateChunks(context.Background(),
		testChunk(123, 1, 0, "ghost", nil, core.AccessMeta{OwnerId: "alice"}))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteChunksByDocument(t *testing.T) {
	_, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	owner := core.AccessMeta{OwnerId: "alice"}
	_, err := chunkRepo.AddChunks(ctx,
		testChunk(1, 1, 0, "doomed", nil, owner),
		testChunk(2, 1, 1, "also doomed", nil, owner),
		testChunk(3, 2, 0, "survivor", nil, owner),
	)
	require.NoError(t, err)

	require.NoError(t, chunkRepo.DeleteChunksByDocument(ctx, 1))

	ids, err := chunkRepo.ListChunkIds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{3}, ids)
}

func TestUpdateAccess_PropagatesToAllChunks(t *testing.T) {
	_, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	owner := core.AccessMeta{OwnerId: "alice"}
	_, err := chunkRepo.AddChunks(ctx,
		testChunk(1, 1, 0, "one", nil, owner),
		testChunk(2, 1, 1, "two", nil, owner),
	)
	require.NoError(t, err)

	shared := core.AccessMeta{OwnerId: "alice", SharedWith: []string{"bob"}}
	require.NoError(t, chunkRepo.UpdateAccess(ctx, 1, shared))

	chunks, err := chunkRepo.GetChunksByDocument(ctx, 1)
	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.Equal(t, []string{"bob"}, chunk.Access.SharedWith)
	}
}

func TestSemanticSearch_AccessFiltering(t *testing.T) {
	_, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	_, err := chunkRepo.AddChunks(ctx,
		testChunk(1, 1, 0, "alice private", vec, core.AccessMeta{OwnerId: "alice"}),
		testChunk(2, 2, 0, "public", vec, core.AccessMeta{OwnerId: "bob", IsPublic: true}),
		testChunk(3, 3, 0, "shared with alice", vec, core.AccessMeta{OwnerId: "bob", SharedWith: []string{"alice"}}),
		testChunk(4, 4, 0, "bob private", vec, core.AccessMeta{OwnerId: "bob"}),
	)
	require.NoError(t, err)

	t.Run("owner sees own, public, and shared", func(t *testing.T) {
		filter := access.BuildFilter(core.Caller{Id: "alice"})
		results, err := chunkRepo.SemanticSearch(ctx, vec, 10, filter, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		for _, r := range results {
			assert.NotEqual(t, core.ID(4), r.ChunkId)
		}
	})

	t.Run("stranger sees only public", func(t *testing.T) {
		filter := access.BuildFilter(core.Caller{Id: "mallory"})
		results, err := chunkRepo.SemanticSearch(ctx, vec, 10, filter, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, core.ID(2), results[0].ChunkId)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		filter := access.BuildFilter(core.Caller{Id: "root", IsAdmin: true})
		results, err := chunkRepo.SemanticSearch(ctx, vec, 10, filter, nil)
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})
}

func TestSemanticSearch_OrderingAndTruncation(t *testing.T) {
	_, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	owner := core.AccessMeta{OwnerId: "alice"}
	_, err := chunkRepo.AddChunks(ctx,
		testChunk(1, 1, 0, "exact", []float32{1, 0}, owner),
		testChunk(2, 1, 1, "close", []float32{0.9, 0.1}, owner),
		testChunk(3, 1, 2, "far", []float32{0.1, 0.9}, owner),
		testChunk(4, 1, 3, "orthogonal", []float32{0, 1}, owner),
		testChunk(5, 1, 4, "no vector", nil, owner),
	)
	require.NoError(t, err)

	filter := access.BuildFilter(core.Caller{Id: "alice"})
	results, err := chunkRepo.SemanticSearch(ctx, []float32{1, 0}, 2, filter, nil)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, core.ID(1), results[0].ChunkId)
	assert.Equal(t, core.ID(2), results[1].ChunkId)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestSemanticSearch_FieldFilter(t *testing.T) {
	_, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	owner := core.AccessMeta{OwnerId: "alice"}
	a := testChunk(1, 1, 0, "from web", []float32{1}, owner)
	a.Metadata["source"] = "web"
	b := testChunk(2, 1, 1, "from wiki", []float32{1}, owner)
	b.Metadata["source"] = "wiki"
	_, err := chunkRepo.AddChunks(ctx, a, b)
	require.NoError(t, err)

	filter := access.BuildFilter(core.Caller{Id: "alice"})

	results, err := chunkRepo.SemanticSearch(ctx, []float32{1}, 10, filter, map[string]string{"source": "wiki"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ID(2), results[0].ChunkId)

	// The "metadata." prefix form is accepted too.
	results, err = chunkRepo.SemanticSearch(ctx, []float32{1}, 10, filter, map[string]string{"metadata.source": "web"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ID(1), results[0].ChunkId)
}

func TestSemanticSearch_InvalidK(t *testing.T) {
	_, chunkRepo := newTestRepos(t)

	_, err := chunkRepo.SemanticSearch(context.Background(), []float32{1}, 0, nil, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestTextSearch(t *testing.T) {
	_, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	owner := core.AccessMeta{OwnerId: "alice"}
	_, err := chunkRepo.AddChunks(ctx,
		testChunk(1, 1, 0, "Authentication is the process of verifying identity. Authentication matters.", nil, owner),
		testChunk(2, 1, 1, "Authorization happens after authentication.", nil, owner),
		testChunk(3, 1, 2, "Completely unrelated text about gardening.", nil, owner),
	)
	require.NoError(t, err)

	filter := access.BuildFilter(core.Caller{Id: "alice"})

	t.Run("ranks by term frequency", func(t *testing.T) {
		results, err := chunkRepo.TextSearch(ctx, "authentication", 10, filter, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, core.ID(1), results[0].ChunkId)
		assert.Greater(t, results[0].Similarity, results[1].Similarity)
	})

	t.Run("stop-word-only query yields empty", func(t *testing.T) {
		results, err := chunkRepo.TextSearch(ctx, "the of is", 10, filter, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("truncates to k", func(t *testing.T) {
		results, err := chunkRepo.TextSearch(ctx, "authentication", 1, filter, nil)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("stranger sees nothing", func(t *testing.T) {
		strangerFilter := access.BuildFilter(core.Caller{Id: "mallory"})
		results, err := chunkRepo.TextSearch(ctx, "authentication", 10, strangerFilter, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
