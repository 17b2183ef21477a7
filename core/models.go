package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document IDs come from database sequences; chunk IDs are content-based hashes.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// AccessMeta holds the access-control fields of a document.
// A copy is denormalized onto every chunk at write time so that row-level
// filtering can be applied at query time without a join. Sharing updates must
// rewrite the chunk copies to keep them consistent.
type AccessMeta struct {
	OwnerId    string
	OwnerLabel string // Human-readable identity, e.g. an email address
	IsPublic   bool
	SharedWith []string // Identity strings: ids or labels
	GroupIds   []string
}

// Document represents an ingested document with its full normalized text.
type Document struct {
	Id        ID
	Title     string
	Source    string // Origin identifier, e.g. URL or connector name
	Content   string
	Metadata  map[string]string
	Access    AccessMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk is a bounded, embeddable slice of a document's text.
type Chunk struct {
	Id         ID
	DocumentId ID
	Index      int // 0-based position within the document, unique per document
	Content    string
	Vector     []float32 // Embedding vector (populated by the ingestion pipeline)
	StartChar  int       // Offset into the source content
	EndChar    int
	Metadata   map[string]string // Inherits document metadata plus chunk-local fields
	Access     AccessMeta        // Denormalized from the parent document
}

// SearchResult represents a chunk match from a search. Never persisted.
type SearchResult struct {
	ChunkId    ID
	DocumentId ID
	Content    string
	Similarity float32 // 0..1 for semantic matches; text matches use an unbounded rank score
	Metadata   map[string]string
}

// Citation points a result list entry back to its source document. Never persisted.
type Citation struct {
	Id      int // 1-based position in the result list
	Title   string
	Source  string
	ChunkId ID
}

// Caller identifies the principal making a request.
type Caller struct {
	Id      string
	Label   string
	Groups  []string
	IsAdmin bool
}
