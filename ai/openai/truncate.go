package openai

import "unicode/utf8"

// charsPerToken is the character-count estimate used to convert a model token
// budget into a character budget before calling the embedding endpoint.
const charsPerToken = 4

// truncateToBudget deterministically cuts text to at most maxChars bytes,
// backing off to the previous rune boundary. Truncation is silent.
func truncateToBudget(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}

	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
