package cmd

import (
	"strings"
)

// truncate shortens a description to at most n runes, appending an
// ellipsis when it was cut.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
