package openlibrary

import (
	"fmt"
	"strings"
)

const DefaultCoversBaseURL = "https://covers.openlibrary.org"

// CoverSource builds a cover URL from one field of a search document. It
// returns "" when the document lacks that field.
type CoverSource func(doc SearchDoc) string

// CoverResolver tries its sources in order and keeps the first URL produced.
type CoverResolver struct {
	Sources []CoverSource
}

// NewCoverResolver returns the default chain: cover id, then cover edition,
// then the first ISBN.
func NewCoverResolver(baseURL string) CoverResolver {
	if baseURL == "" {
		baseURL = DefaultCoversBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return CoverResolver{Sources: []CoverSource{
		CoverByID(baseURL),
		CoverByEditionKey(baseURL),
		CoverByISBN(baseURL),
	}}
}

// Resolve returns nil when no source yields a URL.
func (r CoverResolver) Resolve(doc SearchDoc) *string {
	for _, source := range r.Sources {
		if url := source(doc); url != "" {
			return &url
		}
	}
	return nil
}

func CoverByID(baseURL string) CoverSource {
	return func(doc SearchDoc) string {
		if doc.CoverI == nil {
			return ""
		}
		return fmt.Sprintf("%s/b/id/%d-M.jpg", baseURL, *doc.CoverI)
	}
}

func CoverByEditionKey(baseURL string) CoverSource {
	return func(doc SearchDoc) string {
		key := strings.TrimSpace(doc.CoverEditionKey)
		if key == "" {
			return ""
		}
		return fmt.Sprintf("%s/b/olid/%s-M.jpg", baseURL, key)
	}
}

func CoverByISBN(baseURL string) CoverSource {
	return func(doc SearchDoc) string {
		for _, isbn := range doc.ISBN {
			if isbn = strings.TrimSpace(isbn); isbn != "" {
				return fmt.Sprintf("%s/b/isbn/%s-M.jpg", baseURL, isbn)
			}
		}
		return ""
	}
}
