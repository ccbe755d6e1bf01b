package secrets

import (
	"sort"
	"strings"
)

// ReplaceMarkers substitutes every marker in content with its value in a
// single left-to-right pass and returns the result plus a per-marker
// replacement count.
//
// The scan is keyed by exact marker identity: at each position the
// longest matching marker wins, and replacement output is never
// rescanned. This makes substitution order-independent even when one
// marker is a textual substring of another, which with naive sequential
// search-and-replace corrupts the longer marker.
func ReplaceMarkers(content string, values map[string]string) (string, map[string]int) {
	counts := make(map[string]int, len(values))
	if len(values) == 0 {
		return content, counts
	}

	markers := make([]string, 0, len(values))
	for m := range values {
		markers = append(markers, m)
	}
	// Longest first so nested markers resolve to the outermost token
	sort.Slice(markers, func(i, j int) bool {
		if len(markers[i]) != len(markers[j]) {
			return len(markers[i]) > len(markers[j])
		}
		return markers[i] < markers[j]
	})

	var b strings.Builder
	b.Grow(len(content))

	for i := 0; i < len(content); {
		matched := ""
		for _, m := range markers {
			if strings.HasPrefix(content[i:], m) {
				matched = m
				break
			}
		}
		if matched == "" {
			b.WriteByte(content[i])
			i++
			continue
		}
		b.WriteString(values[matched])
		counts[matched]++
		i += len(matched)
	}

	return b.String(), counts
}
