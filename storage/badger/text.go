package badger

import "strings"

// Stop words to filter out when scoring keyword matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// termFrequencies counts occurrences of each filtered term in the text.
func termFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, word := range tokenizeAndFilter(text) {
		freqs[word]++
	}
	return freqs
}

// keywordScore sums the frequencies of the query terms found in the document
// terms. The score is rank-based and unbounded; zero means no term matched.
func keywordScore(queryTerms []string, docFreqs map[string]int) float32 {
	var score float32
	for _, term := range queryTerms {
		score += float32(docFreqs[term])
	}
	return score
}
