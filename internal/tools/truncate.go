package tools

import "unicode/utf8"

// MaxOutputChars caps every tool output handed back to the model.
const MaxOutputChars = 20000

// truncateChars keeps at most limit characters of s, never splitting a rune.
func truncateChars(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}
