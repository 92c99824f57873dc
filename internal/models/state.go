package models

import "strings"

func normalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeState maps a raw state parameter to its canonical form,
// defaulting unrecognized values to ALL.
func NormalizeState(s string) string {
	n := normalizeState(s)
	if !KnownState(n) {
		return StateAll
	}
	return n
}
