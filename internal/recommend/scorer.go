// Package recommend ranks cached books for a reader.
package recommend

import (
	"sort"
	"strings"

	"github.com/mrlokans/shelfsync/internal/entities"
)

const (
	ratingWeight   = 0.7
	subjectWeight  = 0.5
	favoriteBonus  = 1.2
	oldBookPenalty = 0.3
	oldBookYear    = 1980
)

// Scorer weighs rating, subject affinity, favorites and publication age.
type Scorer struct {
	preferred map[string]struct{}
}

// NewScorer creates a scorer for the given preferred subjects (case-insensitive).
func NewScorer(preferredSubjects []string) Scorer {
	preferred := make(map[string]struct{}, len(preferredSubjects))
	for _, s := range preferredSubjects {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			preferred[s] = struct{}{}
		}
	}
	return Scorer{preferred: preferred}
}

// Score returns the recommendation score of book.
func (s Scorer) Score(book entities.Book, favorite bool) float64 {
	hits := 0
	for _, subject := range book.Subjects {
		if _, ok := s.preferred[strings.ToLower(subject)]; ok {
			hits++
		}
	}

	score := book.RatingScore*ratingWeight + float64(hits)*subjectWeight
	if favorite {
		score += favoriteBonus
	}
	if book.FirstPublishYear != nil && *book.FirstPublishYear < oldBookYear {
		score -= oldBookPenalty
	}
	return score
}

// Rank returns books ordered by descending score. Equal scores keep their
// input order.
func (s Scorer) Rank(books []entities.Book, favorites map[string]bool) []entities.Book {
	type scored struct {
		book  entities.Book
		score float64
	}
	items := make([]scored, len(books))
	for i, b := range books {
		items[i] = scored{book: b, score: s.Score(b, favorites[b.ID])}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	ranked := make([]entities.Book, len(items))
	for i, item := range items {
		ranked[i] = item.book
	}
	return ranked
}
