package openlibrary

import (
	"strings"

	"github.com/mrlokans/shelfsync/internal/entities"
)

const (
	UnknownAuthor = "Unknown author"
	DefaultRating = 3.5

	workKeyPrefix = "/works/"
)

// Mapper converts search documents into catalog records.
type Mapper struct {
	Covers CoverResolver
}

// NewMapper returns a mapper using the default cover chain.
func NewMapper() Mapper {
	return Mapper{Covers: NewCoverResolver("")}
}

// Map converts doc into a record stamped with fetchedAt (epoch milliseconds).
// Documents without a usable id or title are rejected.
func (m Mapper) Map(doc SearchDoc, fetchedAt int64) (entities.Book, bool) {
	id := WorkID(doc.Key)
	title := strings.TrimSpace(doc.Title)
	if id == "" || title == "" {
		return entities.Book{}, false
	}

	author := UnknownAuthor
	for _, name := range doc.AuthorName {
		if name = strings.TrimSpace(name); name != "" {
			author = name
			break
		}
	}

	rating := DefaultRating
	if doc.RatingsAverage != nil {
		rating = *doc.RatingsAverage
	}

	subjects := make(entities.Subjects, 0, len(doc.Subject))
	for _, s := range doc.Subject {
		if s = strings.TrimSpace(s); s != "" {
			subjects = append(subjects, s)
		}
	}

	return entities.Book{
		ID:               id,
		Title:            title,
		Author:           author,
		CoverURL:         m.Covers.Resolve(doc),
		FirstPublishYear: doc.FirstPublishYear,
		Subjects:         subjects,
		RatingScore:      rating,
		LastUpdatedAt:    fetchedAt,
	}, true
}

// MapAll maps docs in order, dropping the ones Map rejects.
func (m Mapper) MapAll(docs []SearchDoc, fetchedAt int64) []entities.Book {
	books := make([]entities.Book, 0, len(docs))
	for _, doc := range docs {
		if book, ok := m.Map(doc, fetchedAt); ok {
			books = append(books, book)
		}
	}
	return books
}

// WorkID strips the "/works/" prefix from a work key.
func WorkID(key string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), workKeyPrefix))
}
