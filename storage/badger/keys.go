package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/hearthlight/quiver/core"
)

// Key prefixes for different data types
const (
	documentPrefix      = "docrec"
	documentIDSeq       = "docrecseq"
	chunkPrefix         = "chkrec"
	chunkDocumentPrefix = "chkdoc"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkDocumentKey generates a composite key for the document index.
// Format: prefix:documentID:chunkID
func makeChunkDocumentKey(documentId, chunkId core.ID) []byte {
	prefix := chunkDocumentPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkId))
	return buf
}

// makePartialChunkDocumentKey generates a partial key for per-document scans.
// Format: prefix:documentID
func makePartialChunkDocumentKey(documentId core.ID) []byte {
	prefix := chunkDocumentPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}
