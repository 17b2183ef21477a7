package retrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseYesNo(t *testing.T) {
	cases := []struct {
		response string
		want     bool
	}{
		{"yes", true},
		{"Yes", true},
		{"YES", true},
		{"Yes.", true},
		{"yes, the passage is relevant", true},
		{"  Yes!  ", true},
		{"no", false},
		{"No.", false},
		{"nope", false},
		{"maybe", false},
		{"", false},
		{"the answer is yes", false},
	}

	for _, tc := range cases {
		t.Run(tc.response, func(t *testing.T) {
			assert.Equal(t, tc.want, parseYesNo(tc.response))
		})
	}
}

func TestParseNumberedList(t *testing.T) {
	t.Run("dot and paren forms", func(t *testing.T) {
		response := "1. What is authentication?\n2) What is authorization?\n3. How do they differ?"
		got := parseNumberedList(response)
		assert.Equal(t, []string{
			"What is authentication?",
			"What is authorization?",
			"How do they differ?",
		}, got)
	})

	t.Run("ignores unnumbered lines", func(t *testing.T) {
		response := "Here are the sub-questions:\n1. First question\n\nSome commentary.\n2. Second question"
		got := parseNumberedList(response)
		assert.Equal(t, []string{"First question", "Second question"}, got)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		got := parseNumberedList("  1.   padded question   ")
		assert.Equal(t, []string{"padded question"}, got)
	})

	t.Run("no numbered lines", func(t *testing.T) {
		assert.Empty(t, parseNumberedList("I cannot break this question down."))
	})

	t.Run("empty response", func(t *testing.T) {
		assert.Empty(t, parseNumberedList(""))
	})
}
