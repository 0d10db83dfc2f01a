package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the column width internal/manager.ListSummaries
// clips a unit's Description to for a single status-line row.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen is the smallest maxLen TruncateDescription honors -- below
// it there's no room left for a character plus "...".
const MinTruncateLen = 4

// TruncateDescription collapses s to one line (folding all whitespace runs,
// including newlines, to a single space) and clips it to maxLen runes,
// appending "..." when it had to cut. Operates on runes, not bytes, so a
// multi-byte unit description never gets split mid-character. maxLen below
// MinTruncateLen is clamped up to it.
func TruncateDescription(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
