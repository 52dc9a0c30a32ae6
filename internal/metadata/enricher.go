// Package metadata fills in catalog details that search pages do not carry,
// such as a work's long description, so detail views stay complete offline.
package metadata

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/shelfsync/internal/entities"
)

// ProgressTag is the sync status key of bulk enrichment runs.
const ProgressTag = "__enrichment__"

const defaultBatchSize = 50

// DescriptionProvider fetches the long description of a work.
type DescriptionProvider interface {
	WorkDescription(ctx context.Context, workID string) (string, error)
}

// BookUpdater reads and updates cached records.
type BookUpdater interface {
	GetBookByID(ctx context.Context, id string) (*entities.Book, error)
	SetDescription(ctx context.Context, id, description string) error
	BooksMissingDescription(ctx context.Context, limit int) ([]entities.Book, error)
}

// ProgressReporter reports bulk enrichment progress.
type ProgressReporter interface {
	StartSync(ctx context.Context, tag string, page int) error
	CompleteSync(ctx context.Context, tag string, status entities.SyncStatus, added int, errorMsg string) error
	IsSyncRunning(ctx context.Context, tag string) (bool, error)
}

// EnrichmentResult contains the result of an enrichment operation.
type EnrichmentResult struct {
	Book    *entities.Book `json:"book"`
	Updated bool           `json:"updated"`
	Source  string         `json:"source"`
}

// Enricher fills book descriptions from an external source.
type Enricher struct {
	provider         DescriptionProvider
	db               BookUpdater
	progressReporter ProgressReporter
	batchSize        int
}

// NewEnricher creates a new Enricher with the given provider and store.
func NewEnricher(provider DescriptionProvider, db BookUpdater) *Enricher {
	return &Enricher{
		provider:  provider,
		db:        db,
		batchSize: defaultBatchSize,
	}
}

// SetProgressReporter sets the progress reporter for bulk operations (optional).
func (e *Enricher) SetProgressReporter(reporter ProgressReporter) {
	e.progressReporter = reporter
}

// EnrichBook fetches the description of a cached book and stores it. A work
// without a description is stored as empty so it is not fetched again.
func (e *Enricher) EnrichBook(ctx context.Context, bookID string) (*EnrichmentResult, error) {
	book, err := e.db.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	description, err := e.provider.WorkDescription(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch description: %w", err)
	}

	if book.Description != nil && *book.Description == description {
		return &EnrichmentResult{Book: book, Source: "openlibrary"}, nil
	}

	if err := e.db.SetDescription(ctx, book.ID, description); err != nil {
		return nil, fmt.Errorf("update description: %w", err)
	}

	book, err = e.db.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("refresh book: %w", err)
	}

	return &EnrichmentResult{
		Book:    book,
		Updated: description != "",
		Source:  "openlibrary",
	}, nil
}

// BulkEnrichmentResult contains the summary of a bulk enrichment operation.
type BulkEnrichmentResult struct {
	TotalBooks int      `json:"total_books"`
	Enriched   int      `json:"enriched"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// EnrichAllMissing enriches one batch of cached books that have no description.
func (e *Enricher) EnrichAllMissing(ctx context.Context) (*BulkEnrichmentResult, error) {
	if e.progressReporter != nil {
		running, err := e.progressReporter.IsSyncRunning(ctx, ProgressTag)
		if err != nil {
			return nil, fmt.Errorf("check sync status: %w", err)
		}
		if running {
			return nil, fmt.Errorf("enrichment is already in progress")
		}
	}

	books, err := e.db.BooksMissingDescription(ctx, e.batchSize)
	if err != nil {
		return nil, fmt.Errorf("get books missing description: %w", err)
	}

	result := &BulkEnrichmentResult{TotalBooks: len(books)}

	if e.progressReporter != nil {
		if err := e.progressReporter.StartSync(ctx, ProgressTag, 0); err != nil {
			return nil, fmt.Errorf("start sync progress: %w", err)
		}
	}

	for _, book := range books {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, "operation cancelled")
			e.complete(ctx, entities.SyncStatusFailed, result, "operation cancelled")
			return result, err
		}

		enrichResult, err := e.EnrichBook(ctx, book.ID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", book.Title, err))
			continue
		}

		if enrichResult.Updated {
			result.Enriched++
		} else {
			result.Skipped++
		}
	}

	status := entities.SyncStatusFresh
	errorMsg := ""
	if result.Failed > 0 {
		status = entities.SyncStatusDegraded
		errorMsg = fmt.Sprintf("%d errors occurred", result.Failed)
	}
	e.complete(ctx, status, result, errorMsg)

	return result, nil
}

func (e *Enricher) complete(ctx context.Context, status entities.SyncStatus, result *BulkEnrichmentResult, errorMsg string) {
	if e.progressReporter == nil {
		return
	}
	if err := e.progressReporter.CompleteSync(context.WithoutCancel(ctx), ProgressTag, status, result.Enriched, errorMsg); err != nil {
		log.Printf("[ENRICH] warning - failed to record progress: %v", err)
	}
}
