package retrieve

import (
	"fmt"
	"strings"

	"github.com/hearthlight/quiver/core"
)

// BuildCitations creates one citation per unique chunk, numbered by 1-based
// position in the result list. The title comes from the chunk's
// "document_title" metadata, falling back to "title" and finally "Untitled".
// The source comes from "source" metadata, falling back to empty.
func BuildCitations(results []core.SearchResult) []core.Citation {
	seen := make(map[core.ID]bool, len(results))
	citations := make([]core.Citation, 0, len(results))

	for _, result := range results {
		if seen[result.ChunkId] {
			continue
		}
		seen[result.ChunkId] = true

		title := result.Metadata["document_title"]
		if title == "" {
			title = result.Metadata["title"]
		}
		if title == "" {
			title = "Untitled"
		}

		citations = append(citations, core.Citation{
			Id:      len(citations) + 1,
			Title:   title,
			Source:  result.Metadata["source"],
			ChunkId: result.ChunkId,
		})
	}
	return citations
}

// FormatCitations renders citations as a numbered list, one per line.
func FormatCitations(citations []core.Citation) string {
	var sb strings.Builder
	for i, citation := range citations {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] %s — %s", citation.Id, citation.Title, citation.Source)
	}
	return sb.String()
}
