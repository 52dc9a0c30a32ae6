// Package books provides the persisted paged-query store: catalog records,
// per-tag ordered membership and per-tag pagination state.
//
// Every reset or append runs as one transaction (clear, upsert records, insert
// links, save pagination), so readers never see a tag whose links and records
// disagree. Watchers are notified only after the transaction commits.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	err := repo.ReplaceQuery(ctx, "__feed__", records, 1, nowMillis)
//	list, err := repo.BooksForQuery(ctx, "__feed__")
package books

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/shelfsync/internal/entities"
)

const batchSize = 200

// syncedColumns are overwritten by an upsert. The description is filled in by
// enrichment and survives later syncs of the same record.
var syncedColumns = []string{
	"title", "author", "cover_url", "first_publish_year",
	"subjects", "rating_score", "last_updated_at",
}

// MergeFunc reconciles the records already linked to a tag with an incoming
// page and returns the record contents to persist.
type MergeFunc func(cached, incoming []entities.Book) []entities.Book

// Repository handles books, query links and pagination state.
type Repository struct {
	db       *gorm.DB
	watchers *watchers
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, watchers: newWatchers()}
}

// GetBookByID returns gorm.ErrRecordNotFound when the id is unknown.
func (r *Repository) GetBookByID(ctx context.Context, id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetPagedQuery returns the pagination state for tag, or nil if the tag has
// never been fetched.
func (r *Repository) GetPagedQuery(ctx context.Context, tag string) (*entities.PagedQuery, error) {
	return pagedQuery(r.db.WithContext(ctx), tag)
}

// LastLoadedPage returns 0 for a tag that has never been fetched.
func (r *Repository) LastLoadedPage(ctx context.Context, tag string) (int, error) {
	q, err := r.GetPagedQuery(ctx, tag)
	if err != nil || q == nil {
		return 0, err
	}
	return q.LastLoadedPage, nil
}

// LastFetchedAt returns 0 for a tag that has never been fetched.
func (r *Repository) LastFetchedAt(ctx context.Context, tag string) (int64, error) {
	q, err := r.GetPagedQuery(ctx, tag)
	if err != nil || q == nil {
		return 0, err
	}
	return q.LastFetchedAt, nil
}

// BooksForQuery returns the records linked to tag in display order.
func (r *Repository) BooksForQuery(ctx context.Context, tag string) ([]entities.Book, error) {
	return booksForQuery(r.db.WithContext(ctx), tag)
}

// QueryBookIDs returns the ids linked to tag in display order.
func (r *Repository) QueryBookIDs(ctx context.Context, tag string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&entities.BookQuery{}).
		Where("query_tag = ?", tag).
		Order("position ASC").
		Pluck("book_id", &ids).Error
	return ids, err
}

// UpsertBooks replaces record contents by id without touching any tag.
func (r *Repository) UpsertBooks(ctx context.Context, books []entities.Book) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertBooks(tx, books)
	})
	if err != nil {
		return fmt.Errorf("upsert books: %w", err)
	}
	r.watchers.broadcast()
	return nil
}

// ReplaceQuery atomically replaces the id list of tag with books in order,
// upserts their contents and sets the tag's page and fetch time.
func (r *Repository) ReplaceQuery(ctx context.Context, tag string, books []entities.Book, page int, fetchedAt int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("query_tag = ?", tag).Delete(&entities.BookQuery{}).Error; err != nil {
			return fmt.Errorf("clear links: %w", err)
		}
		if err := upsertBooks(tx, books); err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(books))
		links := make([]entities.BookQuery, 0, len(books))
		for _, book := range books {
			if _, dup := seen[book.ID]; dup {
				continue
			}
			seen[book.ID] = struct{}{}
			links = append(links, entities.BookQuery{
				QueryTag:  tag,
				BookID:    book.ID,
				Position:  len(links),
				Page:      page,
				FetchedAt: fetchedAt,
			})
		}
		if err := insertLinks(tx, links); err != nil {
			return err
		}
		return savePagedQuery(tx, tag, page, fetchedAt)
	})
	if err != nil {
		return fmt.Errorf("replace query %q: %w", tag, err)
	}

	r.watchers.broadcast()
	return nil
}

// AppendToQuery extends tag with the incoming ids it does not already hold.
//
// The tag's current records are read once inside the transaction; merge decides
// the surviving contents of ids present on both sides, and new ids take
// positions after the existing ones in incoming order. It returns the number of
// ids linked.
func (r *Repository) AppendToQuery(ctx context.Context, tag string, incoming []entities.Book, page int, fetchedAt int64, merge MergeFunc) (int, error) {
	var added int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := booksForQuery(tx, tag)
		if err != nil {
			return fmt.Errorf("read tag snapshot: %w", err)
		}

		if err := upsertBooks(tx, merge(existing, incoming)); err != nil {
			return err
		}

		members := make(map[string]struct{}, len(existing)+len(incoming))
		for _, book := range existing {
			members[book.ID] = struct{}{}
		}
		start := len(existing)
		var links []entities.BookQuery
		for _, book := range incoming {
			if _, ok := members[book.ID]; ok {
				continue
			}
			members[book.ID] = struct{}{}
			links = append(links, entities.BookQuery{
				QueryTag:  tag,
				BookID:    book.ID,
				Position:  start + len(links),
				Page:      page,
				FetchedAt: fetchedAt,
			})
		}
		if err := insertLinks(tx, links); err != nil {
			return err
		}
		added = len(links)
		return savePagedQuery(tx, tag, page, fetchedAt)
	})
	if err != nil {
		return 0, fmt.Errorf("append to query %q: %w", tag, err)
	}

	r.watchers.broadcast()
	return added, nil
}

// SetDescription stores the long description of a cached record. It returns
// gorm.ErrRecordNotFound when the id is unknown.
func (r *Repository) SetDescription(ctx context.Context, id, description string) error {
	result := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("id = ?", id).
		Update("description", description)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.watchers.broadcast()
	return nil
}

// BooksMissingDescription returns up to limit cached records that have not
// been enriched yet.
func (r *Repository) BooksMissingDescription(ctx context.Context, limit int) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("description IS NULL").
		Order("last_updated_at DESC").
		Limit(limit).
		Find(&books).Error
	return books, err
}

// DeleteOrphanBooks removes records that no tag references and that were last
// refreshed before updatedBefore (epoch milliseconds).
func (r *Repository) DeleteOrphanBooks(ctx context.Context, updatedBefore int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("last_updated_at < ?", updatedBefore).
		Where("id NOT IN (?)", r.db.Model(&entities.BookQuery{}).Select("book_id")).
		Delete(&entities.Book{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete orphan books: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		r.watchers.broadcast()
	}
	return result.RowsAffected, nil
}

// CountBooks returns the number of distinct records in the cache.
func (r *Repository) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}

func pagedQuery(db *gorm.DB, tag string) (*entities.PagedQuery, error) {
	var q entities.PagedQuery
	result := db.Where("query_tag = ?", tag).Limit(1).Find(&q)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &q, nil
}

func booksForQuery(db *gorm.DB, tag string) ([]entities.Book, error) {
	var books []entities.Book
	err := db.Model(&entities.Book{}).
		Select("books.*").
		Joins("JOIN book_queries ON book_queries.book_id = books.id").
		Where("book_queries.query_tag = ?", tag).
		Order("book_queries.position ASC").
		Find(&books).Error
	return books, err
}

func upsertBooks(tx *gorm.DB, books []entities.Book) error {
	if len(books) == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(syncedColumns),
	}).CreateInBatches(books, batchSize).Error
	if err != nil {
		return fmt.Errorf("upsert books: %w", err)
	}
	return nil
}

func insertLinks(tx *gorm.DB, links []entities.BookQuery) error {
	if len(links) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(links, batchSize).Error; err != nil {
		return fmt.Errorf("insert links: %w", err)
	}
	return nil
}

func savePagedQuery(tx *gorm.DB, tag string, page int, fetchedAt int64) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "query_tag"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_loaded_page", "last_fetched_at"}),
	}).Create(&entities.PagedQuery{
		QueryTag:       tag,
		LastLoadedPage: page,
		LastFetchedAt:  fetchedAt,
	}).Error
	if err != nil {
		return fmt.Errorf("save paged query: %w", err)
	}
	return nil
}
