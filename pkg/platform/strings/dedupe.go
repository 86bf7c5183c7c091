// Package strings holds small string-slice helpers for author-supplied
// lists.
package strings

import "strings"

// DedupeAndTrim trims whitespace from each entry and drops empties and
// repeats, keeping first-seen order. Answer options and similar authored
// lists pass through here before they are stored; case is preserved because
// the entries are display text.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
