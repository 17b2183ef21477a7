package quiver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlight/quiver/ai/mock"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/search"
	"github.com/hearthlight/quiver/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine("", WithInMemory(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

var (
	alice   = core.Caller{Id: "alice", Label: "alice@example.com"}
	mallory = core.Caller{Id: "mallory"}
	admin   = core.Caller{Id: "root", IsAdmin: true}
)

func TestEngine_IngestAndSearch(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	added, err := engine.Ingest(ctx, IngestRequest{
		Content: "Authentication is the process of verifying identity.",
		Title:   "Auth Guide",
		Source:  "https://example.com/auth",
	}, alice)
	require.NoError(t, err)
	require.NotZero(t, added.Id)

	t.Run("owner finds the document", func(t *testing.T) {
		results, err := engine.Search(ctx, search.TypeHybrid, "authentication", 5, nil, alice)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Content, "Authentication")
		assert.Equal(t, "Auth Guide", results[0].Metadata["document_title"])
	})

	t.Run("stranger finds nothing", func(t *testing.T) {
		results, err := engine.Search(ctx, search.TypeHybrid, "authentication", 5, nil, mallory)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("admin finds everything", func(t *testing.T) {
		results, err := engine.Search(ctx, search.TypeHybrid, "authentication", 5, nil, admin)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestEngine_SearchValidation(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Search(ctx, search.TypeHybrid, "   ", 5, nil, alice)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = engine.Search(ctx, search.TypeHybrid, "query", 0, nil, alice)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestEngine_Query(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Ingest(ctx, IngestRequest{
		Content: "Authentication is the process of verifying identity.",
		Title:   "Auth Guide",
		Source:  "https://example.com/auth",
	}, alice)
	require.NoError(t, err)

	// The mock chat model grades everything "yes", so the single retrieved
	// chunk becomes the answer and its citation.
	result, err := engine.Query(ctx, "authentication", 5, nil, alice)
	require.NoError(t, err)
	assert.Contains(t, result.Answer, "Authentication")
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "Auth Guide", result.Citations[0].Title)
	assert.Equal(t, "https://example.com/auth", result.Citations[0].Source)
}

func TestEngine_GetDocument(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	added, err := engine.Ingest(ctx, IngestRequest{Content: "private notes"}, alice)
	require.NoError(t, err)

	t.Run("owner can fetch", func(t *testing.T) {
		got, err := engine.GetDocument(ctx, added.Id, alice)
		require.NoError(t, err)
		assert.Equal(t, "private notes", got.Content)
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		_, err := engine.GetDocument(ctx, added.Id, mallory)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("admin can fetch", func(t *testing.T) {
		_, err := engine.GetDocument(ctx, added.Id, admin)
		assert.NoError(t, err)
	})
}

func TestEngine_Share(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	added, err := engine.Ingest(ctx, IngestRequest{
		Content: "Authentication is the process of verifying identity.",
	}, alice)
	require.NoError(t, err)

	t.Run("non-owner cannot share", func(t *testing.T) {
		_, err := engine.Share(ctx, added.Id, nil, []string{"mallory"}, nil, mallory)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("owner shares and chunks follow", func(t *testing.T) {
		bob := core.Caller{Id: "bob"}

		results, err := engine.Search(ctx, search.TypeText, "authentication", 5, nil, bob)
		require.NoError(t, err)
		require.Empty(t, results)

		updated, err := engine.Share(ctx, added.Id, nil, []string{"bob"}, nil, alice)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, updated.Access.SharedWith)

		results, err = engine.Search(ctx, search.TypeText, "authentication", 5, nil, bob)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("making public opens it up", func(t *testing.T) {
		isPublic := true
		_, err := engine.Share(ctx, added.Id, &isPublic, nil, nil, alice)
		require.NoError(t, err)

		results, err := engine.Search(ctx, search.TypeText, "authentication", 5, nil, mallory)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestEngine_Delete(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	added, err := engine.Ingest(ctx, IngestRequest{
		Content: "Authentication is the process of verifying identity.",
	}, alice)
	require.NoError(t, err)

	t.Run("non-owner cannot delete", func(t *testing.T) {
		err := engine.Delete(ctx, added.Id, mallory)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("owner deletes document and chunks", func(t *testing.T) {
		require.NoError(t, engine.Delete(ctx, added.Id, alice))

		_, err := engine.GetDocument(ctx, added.Id, alice)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		results, err := engine.Search(ctx, search.TypeText, "authentication", 5, nil, alice)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestEngine_RewriteQuery(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	chat := mock.NewMockChatModel()
	chat.Enqueue("what is the authentication flow for new users?")

	engine, err := NewEngine("", WithInMemory(),
		WithProvider(mock.NewMockProviderWithServices(embedder, chat)))
	require.NoError(t, err)
	defer engine.Close()

	got := engine.RewriteQuery(context.Background(), "auth?")
	assert.Equal(t, "what is the authentication flow for new users?", got)
}
