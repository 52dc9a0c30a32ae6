package syncpolicy

import "github.com/mrlokans/shelfsync/internal/entities"

// MergePolicy reconciles cached records with incoming ones by id.
type MergePolicy struct{}

// Merge returns cached records in their order followed by incoming records
// with new ids in incoming order. For an id on both sides the record with the
// greater or equal LastUpdatedAt wins, so ties go to incoming. Duplicate ids
// within incoming collapse the same way.
func (MergePolicy) Merge(cached, incoming []entities.Book) []entities.Book {
	merged := make([]entities.Book, 0, len(cached)+len(incoming))
	index := make(map[string]int, len(cached)+len(incoming))

	put := func(book entities.Book, incomingSide bool) {
		i, ok := index[book.ID]
		if !ok {
			index[book.ID] = len(merged)
			merged = append(merged, book)
			return
		}
		if book.LastUpdatedAt > merged[i].LastUpdatedAt ||
			(incomingSide && book.LastUpdatedAt == merged[i].LastUpdatedAt) {
			merged[i] = book
		}
	}

	for _, book := range cached {
		put(book, false)
	}
	for _, book := range incoming {
		put(book, true)
	}
	return merged
}
