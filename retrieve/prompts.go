package retrieve

import (
	"fmt"
	"strings"

	"github.com/hearthlight/quiver/core"
)

const decideDecomposeSystemPrompt = `You are a query analyst. Decide whether a question needs to be broken into
multiple sub-questions before it can be answered well. Answer with a single
word: "yes" or "no".`

const decomposeSystemPrompt = `You are a query analyst. Break the question into 2 to 4 focused sub-questions
that together cover the original question. Respond with a numbered list, one
sub-question per line, and nothing else.`

const gradeSystemPrompt = `You are a relevance grader. Given a question and a passage, decide whether the
passage is relevant to answering the question. Answer with a single word:
"yes" or "no".`

const synthesizeSystemPrompt = `You are a technical writer. Combine the retrieved passages into a single
coherent answer to the question. Use only the information in the passages.`

const rewriteSystemPrompt = `You are a search assistant. Restate the question as a fuller, more specific
search query. Respond with the rewritten query and nothing else.`

func decideDecomposeUserPrompt(query string) string {
	return fmt.Sprintf("Does this question need to be broken into sub-questions?\n\nQuestion: %s", query)
}

func decomposeUserPrompt(query string) string {
	return fmt.Sprintf("Question: %s", query)
}

func gradeUserPrompt(query, content string) string {
	return fmt.Sprintf("Question: %s\n\nPassage:\n%s", query, content)
}

func synthesizeUserPrompt(query string, kept []core.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(query)
	sb.WriteString("\n\nPassages:\n")
	for i, result := range kept {
		fmt.Fprintf(&sb, "\n[%d] %s\n", i+1, result.Content)
	}
	return sb.String()
}

func rewriteUserPrompt(query string) string {
	return fmt.Sprintf("Question: %s", query)
}
