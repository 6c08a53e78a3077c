// Package compliance screens listing content for wording that marks a seller as an
// agency or broker and blocks both the account and the listing on a match.
package compliance

import "strings"

// Match reports one keyword contained in content, compared case-insensitively.
// Matching is plain substring containment with no word boundaries, so "agent"
// also matches "reagents". Empty keywords never match.
func Match(content string, keywords []string) (string, bool) {
	haystack := strings.ToLower(content)
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw))
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, needle) {
			return kw, true
		}
	}
	return "", false
}
