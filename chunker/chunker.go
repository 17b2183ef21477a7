// Package chunker splits document text into overlapping windows suitable for
// embedding. Splits prefer paragraph and sentence boundaries when one exists
// near the target window size; otherwise the window is hard-split.
package chunker

import (
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/hearthlight/quiver/core"
)

const (
	// DefaultChunkSize is the target window size in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultChunkOverlap = 200

	// DefaultMaxChunkSize is the hard upper bound on chunk length.
	DefaultMaxChunkSize = 1500

	// DefaultMaxTokens is the embedding model token budget carried alongside
	// the chunking parameters. The embedder truncates to roughly 4 characters
	// per token.
	DefaultMaxTokens = 8192
)

// Config controls how documents are split.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	MaxChunkSize int
	MaxTokens    int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		MaxChunkSize: DefaultMaxChunkSize,
		MaxTokens:    DefaultMaxTokens,
	}
}

// normalize clamps the configuration to a usable state.
func (c Config) normalize() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.ChunkSize > c.MaxChunkSize {
		c.ChunkSize = c.MaxChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 4
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// Chunk splits content into overlapping windows tagged with position metadata.
// Empty content yields an empty result. Content shorter than the window size
// yields a single chunk covering the whole content.
func Chunk(content, title, source string, metadata map[string]string, cfg Config) []*core.Chunk {
	cfg = cfg.normalize()

	if strings.TrimSpace(content) == "" {
		return []*core.Chunk{}
	}

	var chunks []*core.Chunk
	start := 0
	index := 0

	for start < len(content) {
		end := start + cfg.ChunkSize
		if end >= len(content) {
			end = len(content)
		} else {
			end = splitPoint(content, start, end)
		}

		chunks = append(chunks, &core.Chunk{
			Index:     index,
			Content:   content[start:end],
			StartChar: start,
			EndChar:   end,
			Metadata:  chunkMetadata(metadata, title, source),
		})
		index++

		if end == len(content) {
			break
		}

		next := end - cfg.ChunkOverlap
		for next > start && !utf8.RuneStart(content[next]) {
			next--
		}
		if next <= start {
			// Overlap would stall the window; advance past the chunk instead.
			next = end
		}
		start = next
	}

	return chunks
}

// splitPoint picks the window end, preferring a paragraph break and then a
// sentence end within the tolerance zone before the target position. The
// returned offset always lands on a rune boundary.
func splitPoint(content string, start, target int) int {
	// Back off a mid-rune target before searching.
	for target > start && !utf8.RuneStart(content[target]) {
		target--
	}

	tolerance := (target - start) / 5
	lo := target - tolerance
	if lo <= start {
		return target
	}
	zone := content[lo:target]

	if i := strings.LastIndex(zone, "\n\n"); i >= 0 {
		return lo + i + 2
	}

	best := -1
	for _, delim := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if i := strings.LastIndex(zone, delim); i > best {
			best = i + len(delim)
		}
	}
	if best > 0 {
		return lo + best
	}

	if i := strings.LastIndex(zone, "\n"); i >= 0 {
		return lo + i + 1
	}

	return target
}

// chunkMetadata copies the caller-supplied metadata and tags the chunk with
// its document title and source for citation building.
func chunkMetadata(metadata map[string]string, title, source string) map[string]string {
	out := make(map[string]string, len(metadata)+2)
	maps.Copy(out, metadata)
	out["document_title"] = title
	out["source"] = source
	return out
}
