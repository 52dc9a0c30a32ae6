package syncpolicy

import "strings"

// FeedTag identifies the fixed home feed list.
const FeedTag = "__feed__"

const searchTagPrefix = "search:"

// SearchTag derives the tag of a search list. Queries that differ only in
// punctuation, whitespace or case map to the same tag.
func (s Sanitizer) SearchTag(query string) string {
	return searchTagPrefix + strings.ToLower(s.Sanitize(query))
}

// IsSearchTag reports whether tag was produced by SearchTag.
func IsSearchTag(tag string) bool {
	return strings.HasPrefix(tag, searchTagPrefix)
}
