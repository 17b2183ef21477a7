package retrieve

import (
	"regexp"
	"strings"
)

var numberedLinePattern = regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`)

// parseYesNo reports whether the response's first token is an affirmative.
// Anything other than a leading "yes" is treated as "no".
func parseYesNo(response string) bool {
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return false
	}
	token := strings.ToLower(strings.Trim(fields[0], ".,!:;\"'"))
	return token == "yes"
}

// parseNumberedList extracts the items of a numbered list, one per line.
// Lines must start with an ordinal marker like "1. " or "2) ". Lines that
// do not match are ignored.
func parseNumberedList(response string) []string {
	var items []string
	for _, line := range strings.Split(response, "\n") {
		match := numberedLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		item := strings.TrimSpace(match[1])
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
