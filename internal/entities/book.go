package entities

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// subjectSeparator joins subjects into a single column.
const subjectSeparator = "|#|"

// Subjects is a list of subject tags persisted as one text column.
type Subjects []string

// Value implements driver.Valuer.
func (s Subjects) Value() (driver.Value, error) {
	return strings.Join(s, subjectSeparator), nil
}

// Scan implements sql.Scanner.
func (s *Subjects) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = Subjects{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported subjects column type %T", src)
	}
	if raw == "" {
		*s = Subjects{}
		return nil
	}
	*s = strings.Split(raw, subjectSeparator)
	return nil
}

// Book is a catalog record. It is stored once and referenced by any number of
// query tags through BookQuery rows.
type Book struct {
	ID               string   `gorm:"primaryKey;size:128" json:"id"`
	Title            string   `gorm:"size:512" json:"title"`
	Author           string   `gorm:"size:256" json:"author"`
	CoverURL         *string  `gorm:"size:2048" json:"cover_url,omitempty"`
	FirstPublishYear *int     `json:"first_publish_year,omitempty"`
	Subjects         Subjects `gorm:"type:text" json:"subjects"`
	Description      *string  `gorm:"type:text" json:"description,omitempty"`
	RatingScore      float64  `json:"rating_score"`
	LastUpdatedAt    int64    `gorm:"not null" json:"last_updated_at"` // epoch milliseconds
}

// PagedQuery holds pagination state for one query tag.
type PagedQuery struct {
	QueryTag       string `gorm:"primaryKey;size:128" json:"query_tag"`
	LastLoadedPage int    `json:"last_loaded_page"`
	LastFetchedAt  int64  `json:"last_fetched_at"` // epoch milliseconds
}

// BookQuery links a book to a query tag at a display position.
type BookQuery struct {
	QueryTag  string `gorm:"primaryKey;size:128;index:idx_book_queries_tag_position,priority:1" json:"query_tag"`
	BookID    string `gorm:"primaryKey;size:128;index" json:"book_id"`
	Position  int    `gorm:"index:idx_book_queries_tag_position,priority:2" json:"position"`
	Page      int    `json:"page"`
	FetchedAt int64  `json:"fetched_at"`
}

func (Book) TableName() string {
	return "books"
}

func (PagedQuery) TableName() string {
	return "paged_queries"
}

func (BookQuery) TableName() string {
	return "book_queries"
}
