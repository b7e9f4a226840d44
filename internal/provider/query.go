package provider

import "strings"

// SearchQuery builds web search engine syntax
type SearchQuery struct {
	parts []string
}

// NewSearchQuery creates an empty search query builder
func NewSearchQuery() *SearchQuery {
	return &SearchQuery{
		parts: []string{},
	}
}

// Exact adds a quoted phrase that must appear verbatim
func (sq *SearchQuery) Exact(phrase string) *SearchQuery {
	phrase = strings.ReplaceAll(phrase, `"`, "")
	if phrase == "" {
		return sq
	}
	sq.parts = append(sq.parts, `"`+phrase+`"`)
	return sq
}

// Site restricts results to a domain
func (sq *SearchQuery) Site(domain string) *SearchQuery {
	sq.parts = append(sq.parts, "site:"+domain)
	return sq
}

// Build returns the complete search query string
func (sq *SearchQuery) Build() string {
	return strings.Join(sq.parts, " ")
}

// IsEmpty returns true if no search criteria have been added
func (sq *SearchQuery) IsEmpty() bool {
	return len(sq.parts) == 0
}
