package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/shelfsync/internal/syncer"
)

// Syncer runs sync calls for background tasks.
type Syncer interface {
	RefreshFeed(ctx context.Context, force bool) (syncer.Result, error)
	LoadMoreFeed(ctx context.Context) (syncer.Result, error)
	RefreshSearch(ctx context.Context, query string) (syncer.Result, error)
	LoadMoreSearch(ctx context.Context, query string) (syncer.Result, error)
}

// syncQueueConfig keeps task-level retries low: the engine already retries
// each remote call.
func syncQueueConfig(name string) backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        name,
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshFeedTask refreshes page 1 of the feed.
type RefreshFeedTask struct {
	Force bool `json:"force"`
}

func (t RefreshFeedTask) Config() backlite.QueueConfig {
	return syncQueueConfig("refresh_feed")
}

// RefreshSearchTask refreshes page 1 of a search list.
type RefreshSearchTask struct {
	Query string `json:"query"`
}

func (t RefreshSearchTask) Config() backlite.QueueConfig {
	return syncQueueConfig("refresh_search")
}

// LoadMoreTask appends the next page of the feed, or of a search list when
// Query is set.
type LoadMoreTask struct {
	Query string `json:"query,omitempty"`
}

func (t LoadMoreTask) Config() backlite.QueueConfig {
	return syncQueueConfig("load_more")
}

// RefreshFeedProcessor creates a processor function for RefreshFeedTask.
func RefreshFeedProcessor(s Syncer) backlite.QueueProcessor[RefreshFeedTask] {
	return func(ctx context.Context, task RefreshFeedTask) error {
		if s == nil {
			return fmt.Errorf("syncer not configured")
		}
		res, err := s.RefreshFeed(ctx, task.Force)
		return logSyncResult("refresh feed", res, err)
	}
}

// RefreshSearchProcessor creates a processor function for RefreshSearchTask.
func RefreshSearchProcessor(s Syncer) backlite.QueueProcessor[RefreshSearchTask] {
	return func(ctx context.Context, task RefreshSearchTask) error {
		if s == nil {
			return fmt.Errorf("syncer not configured")
		}
		res, err := s.RefreshSearch(ctx, task.Query)
		return logSyncResult("refresh search", res, err)
	}
}

// LoadMoreProcessor creates a processor function for LoadMoreTask.
func LoadMoreProcessor(s Syncer) backlite.QueueProcessor[LoadMoreTask] {
	return func(ctx context.Context, task LoadMoreTask) error {
		if s == nil {
			return fmt.Errorf("syncer not configured")
		}
		if task.Query == "" {
			res, err := s.LoadMoreFeed(ctx)
			return logSyncResult("load more feed", res, err)
		}
		res, err := s.LoadMoreSearch(ctx, task.Query)
		return logSyncResult("load more search", res, err)
	}
}

func logSyncResult(op string, res syncer.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.Degraded() {
		log.Printf("[TASK] %s %s: serving cached data (%v)", op, res.Tag, res.Cause)
		return nil
	}
	log.Printf("[TASK] %s %s: %s, page %d, %d added", op, res.Tag, res.Status, res.Page, res.Added)
	return nil
}

// NewSyncQueues creates the backlite queues for background sync calls.
func NewSyncQueues(s Syncer) []backlite.Queue {
	return []backlite.Queue{
		backlite.NewQueue(RefreshFeedProcessor(s)),
		backlite.NewQueue(RefreshSearchProcessor(s)),
		backlite.NewQueue(LoadMoreProcessor(s)),
	}
}
