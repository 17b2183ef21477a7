package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_Empty(t *testing.T) {
	chunks := Chunk("", "title", "source", nil, DefaultConfig())
	assert.Empty(t, chunks)

	chunks = Chunk("   \n\t  ", "title", "source", nil, DefaultConfig())
	assert.Empty(t, chunks)
}

func TestChunk_ShortContent(t *testing.T) {
	content := "A short document."
	chunks := Chunk(content, "Short", "test", nil, DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(content), chunks[0].EndChar)
}

func TestChunk_MetadataTagging(t *testing.T) {
	chunks := Chunk("some content", "Auth Guide", "https://example.com/auth",
		map[string]string{"topic": "security"}, DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "Auth Guide", chunks[0].Metadata["document_title"])
	assert.Equal(t, "https://example.com/auth", chunks[0].Metadata["source"])
	assert.Equal(t, "security", chunks[0].Metadata["topic"])
}

func TestChunk_CoversContent(t *testing.T) {
	content := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)
	cfg := DefaultConfig()
	chunks := Chunk(content, "Foxes", "test", nil, cfg)

	require.Greater(t, len(chunks), 1)

	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(content), chunks[len(chunks)-1].EndChar)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, content[chunk.StartChar:chunk.EndChar], chunk.Content)
		assert.LessOrEqual(t, len(chunk.Content), cfg.MaxChunkSize)
		if i > 0 {
			// Consecutive chunks overlap or touch, never leave a gap.
			assert.LessOrEqual(t, chunk.StartChar, chunks[i-1].EndChar)
			assert.Greater(t, chunk.StartChar, chunks[i-1].StartChar)
		}
	}
}

func TestChunk_PrefersParagraphBreaks(t *testing.T) {
	para := strings.Repeat("word ", 190)
	content := para + "\n\n" + para
	cfg := Config{ChunkSize: 1000, ChunkOverlap: 0, MaxChunkSize: 1500}

	chunks := Chunk(content, "Paragraphs", "test", nil, cfg)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0].Content, "\n\n"))
}

func TestChunk_SentenceBoundary(t *testing.T) {
	content := strings.Repeat("This is a sentence. ", 100)
	cfg := Config{ChunkSize: 300, ChunkOverlap: 50, MaxChunkSize: 400}

	chunks := Chunk(content, "Sentences", "test", nil, cfg)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0].Content, ". "))
}

func TestChunk_RuneBoundarySafe(t *testing.T) {
	content := strings.Repeat("héllo wörld ünïcode tèxt ", 200)
	cfg := Config{ChunkSize: 100, ChunkOverlap: 20, MaxChunkSize: 150}

	chunks := Chunk(content, "Unicode", "test", nil, cfg)
	for _, chunk := range chunks {
		assert.True(t, strings.ToValidUTF8(chunk.Content, "") == chunk.Content,
			"chunk content must be valid UTF-8")
	}
}

func TestChunk_DegenerateOverlapDoesNotStall(t *testing.T) {
	content := strings.Repeat("x", 500)
	cfg := Config{ChunkSize: 100, ChunkOverlap: 99, MaxChunkSize: 100}

	chunks := Chunk(content, "Stall", "test", nil, cfg)
	require.NotEmpty(t, chunks)
	assert.Equal(t, len(content), chunks[len(chunks)-1].EndChar)
	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].StartChar, chunks[i-1].StartChar)
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{ChunkSize: -1, ChunkOverlap: -5, MaxChunkSize: 0}.normalize()
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, 0, cfg.ChunkOverlap)
	assert.Equal(t, DefaultMaxChunkSize, cfg.MaxChunkSize)

	cfg = Config{ChunkSize: 2000, MaxChunkSize: 1000}.normalize()
	assert.Equal(t, 1000, cfg.ChunkSize)

	cfg = Config{ChunkSize: 100, ChunkOverlap: 100, MaxChunkSize: 200}.normalize()
	assert.Equal(t, 25, cfg.ChunkOverlap)
}
