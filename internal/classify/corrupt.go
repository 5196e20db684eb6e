package classify

import (
	"strconv"
	"strings"
)

// LooksLikeCorruptedData reports whether a line that failed strict
// classification still resembles a data sample, e.g. a CSV row
// truncated mid-field or prefixed by echoed keystrokes. The predicate
// drives display suppression only: a matching line is still written
// verbatim to the raw session log but is never counted as a Sample.
//
// The heuristic is deliberately separate from the strict parser so its
// fuzzy nature stays visible and independently testable.
func LooksLikeCorruptedData(raw string) bool {
	line := strings.TrimSpace(raw)
	if line == "" || !strings.Contains(line, ",") {
		return false
	}

	// Starts numeric and contains commas: almost certainly a mangled row.
	if line[0] == '-' || (line[0] >= '0' && line[0] <= '9') {
		return true
	}

	// Echoed keystrokes can prefix an otherwise numeric row. If the
	// trailing fields still parse as numbers, treat it as data-like.
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return false
	}
	head := strings.TrimLeftFunc(parts[len(parts)-3], func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})
	for _, f := range []string{head, parts[len(parts)-2], parts[len(parts)-1]} {
		if _, err := strconv.ParseFloat(strings.TrimSpace(f), 64); err != nil {
			return false
		}
	}
	return true
}
