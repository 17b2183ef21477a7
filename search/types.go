package search

import "fmt"

// Type selects the search strategy.
type Type string

const (
	// TypeSemantic uses vector similarity only.
	TypeSemantic Type = "semantic"
	// TypeText uses keyword relevance only.
	TypeText Type = "text"
	// TypeHybrid fuses both result sets.
	TypeHybrid Type = "hybrid"
)

// ParseType validates a search type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeSemantic, TypeText, TypeHybrid:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown search type %q", s)
	}
}
