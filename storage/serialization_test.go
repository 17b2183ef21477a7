package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlight/quiver/core"
)

func TestIDRoundTrip(t *testing.T) {
	for _, id := range []core.ID{0, 1, 255, 1 << 20, 1<<63 - 1} {
		data := MarshalID(id)
		got, err := UnmarshalID(data)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestUnmarshalID_Corrupt(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestDocumentRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &core.Document{
		Id:       42,
		Title:    "Auth Guide",
		Source:   "https://example.com/auth",
		Content:  "Authentication is the process of verifying identity.",
		Metadata: map[string]string{"topic": "security", "source_type": "web"},
		Access: core.AccessMeta{
			OwnerId:    "alice",
			OwnerLabel: "alice@example.com",
			IsPublic:   true,
			SharedWith: []string{"bob"},
			GroupIds:   []string{"eng", "sec"},
		},
		CreatedAt: now,
		UpdatedAt: now.Add(time.Hour),
	}

	got, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestDocumentRoundTrip_ZeroValues(t *testing.T) {
	doc := &core.Document{
		CreatedAt: time.UnixMicro(0).UTC(),
		UpdatedAt: time.UnixMicro(0).UTC(),
	}

	got, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc.Id, got.Id)
	assert.Empty(t, got.Title)
	assert.Empty(t, got.Metadata)
}

func TestChunkRoundTrip(t *testing.T) {
	chunk := &core.Chunk{
		Id:         core.IDFromContent("1:0:hello"),
		DocumentId: 1,
		Index:      3,
		Content:    "hello wörld",
		Vector:     []float32{0.25, -0.5, 1.0},
		StartChar:  100,
		EndChar:    111,
		Metadata:   map[string]string{"document_title": "Greeting"},
		Access: core.AccessMeta{
			OwnerId:    "alice",
			SharedWith: []string{"bob"},
			GroupIds:   []string{"eng"},
		},
	}

	got, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
}

func TestUnmarshalChunk_Corrupt(t *testing.T) {
	data := MarshalChunk(&core.Chunk{Id: 7, Content: "content"})
	_, err := UnmarshalChunk(data[:3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
