package utils

import (
	"strings"
	"unicode/utf8"
)

// PreviewLength is the default rune limit for prompt and response previews.
const PreviewLength = 200

// TruncateForLog shortens s to limit runes and marks the cut with an ellipsis.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// RuneLen is a shorthand used for *_length log fields.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
