package ingest

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hearthlight/quiver/ai"
)

// maxContextDocumentChars bounds how much of the document is shown to the
// chat model when contextualizing a chunk.
const maxContextDocumentChars = 25000

const contextualizeSystemPrompt = `You situate a passage within its document. Given a document and a passage
from it, write one or two sentences of context that locate the passage in the
document. Respond with the context sentences and nothing else.`

// contextualizer generates a short situating prefix for a chunk using the
// full document as context. Failures are never fatal; the chunk is embedded
// without a prefix instead.
type contextualizer struct {
	chat ai.ChatModel
}

// contextualize returns the context prefix for a chunk, or ("", false) when
// generation fails or yields nothing.
func (c *contextualizer) contextualize(ctx context.Context, document, chunk string) (string, bool) {
	truncated := document
	if len(truncated) > maxContextDocumentChars {
		cut := maxContextDocumentChars
		for cut > 0 && !utf8.RuneStart(truncated[cut]) {
			cut--
		}
		truncated = truncated[:cut]
	}

	prompt := fmt.Sprintf("Document:\n%s\n\nPassage:\n%s", truncated, chunk)
	response, err := c.chat.Complete(ctx, contextualizeSystemPrompt, prompt)
	if err != nil {
		return "", false
	}

	prefix := strings.TrimSpace(response)
	if prefix == "" {
		return "", false
	}
	return prefix, true
}
