package utils

import (
	"slices"
	"strings"
)

// NormalizeString trims whitespace and converts to lowercase
func NormalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeChoice normalizes a user supplied flag value and reports whether it is one of the allowed choices
func NormalizeChoice(input string, choices ...string) (string, bool) {
	normalized := NormalizeString(input)
	return normalized, slices.Contains(choices, normalized)
}
