package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DefaultOrphanRetention is how long a record no tag references stays cached.
const DefaultOrphanRetention = 7 * 24 * time.Hour

// OrphanBooksCleaner deletes cached records that no tag references.
type OrphanBooksCleaner interface {
	DeleteOrphanBooks(ctx context.Context, updatedBefore int64) (int64, error)
}

// CleanupOrphanBooksTask removes records that left every list and have not
// been refreshed within the retention window.
type CleanupOrphanBooksTask struct {
	Retention time.Duration `json:"retention,omitempty"`
}

// Config returns the queue configuration for cleanup tasks.
func (t CleanupOrphanBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphan_books",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupOrphanBooksProcessor creates a processor function for CleanupOrphanBooksTask.
// defaultRetention applies to tasks queued without one.
func CleanupOrphanBooksProcessor(cleaner OrphanBooksCleaner, defaultRetention time.Duration) backlite.QueueProcessor[CleanupOrphanBooksTask] {
	if defaultRetention <= 0 {
		defaultRetention = DefaultOrphanRetention
	}
	return func(ctx context.Context, task CleanupOrphanBooksTask) error {
		if cleaner == nil {
			return fmt.Errorf("orphan books cleaner not configured")
		}

		retention := task.Retention
		if retention <= 0 {
			retention = defaultRetention
		}
		cutoff := time.Now().Add(-retention).UnixMilli()

		deleted, err := cleaner.DeleteOrphanBooks(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("cleanup orphan books: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d orphan books", deleted)
		return nil
	}
}

// NewCleanupOrphanBooksQueue creates a backlite queue for orphan book cleanup.
func NewCleanupOrphanBooksQueue(cleaner OrphanBooksCleaner, defaultRetention time.Duration) backlite.Queue {
	return backlite.NewQueue(CleanupOrphanBooksProcessor(cleaner, defaultRetention))
}
