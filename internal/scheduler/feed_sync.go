// Package scheduler runs periodic, non-forced feed refreshes. The engine's
// staleness gate decides whether a tick actually reaches the remote source.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/syncer"
	"github.com/mrlokans/shelfsync/internal/tasks"
)

const (
	DefaultSchedule = "*/15 * * * *"
	syncTimeout     = 2 * time.Minute
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// FeedRefresher is the part of the engine the scheduler drives.
type FeedRefresher interface {
	RefreshFeed(ctx context.Context, force bool) (syncer.Result, error)
}

// Enqueuer queues follow-up work after a fresh feed sync (optional).
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// Config controls the feed sync schedule.
type Config struct {
	Enabled  bool
	Schedule string
}

// FeedSyncScheduler manages periodic feed refreshes.
type FeedSyncScheduler struct {
	refresher FeedRefresher
	config    Config
	enqueuer  Enqueuer

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	lastResult *syncer.Result
	cancelFunc context.CancelFunc
}

// NewFeedSyncScheduler creates a new scheduler instance.
func NewFeedSyncScheduler(refresher FeedRefresher, cfg Config) *FeedSyncScheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	return &FeedSyncScheduler{
		refresher: refresher,
		config:    cfg,
		cron:      cron.New(cron.WithParser(parser)),
	}
}

// SetEnqueuer enables follow-up enrichment after fresh syncs.
func (s *FeedSyncScheduler) SetEnqueuer(e Enqueuer) {
	s.enqueuer = e
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Start begins the scheduler if it is enabled.
func (s *FeedSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Feed sync scheduler: disabled")
		return nil
	}

	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, s.runSync)
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Feed sync scheduler: started with schedule '%s'. Next run: %v",
		s.config.Schedule, s.cron.Entry(entryID).Next)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *FeedSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// Stop accepting new jobs and wait for a running one to complete. The
	// lock is released first because runSync takes it on exit.
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	if cancel != nil {
		cancel()
	}

	log.Printf("Feed sync scheduler: stopped")
}

// RunNow triggers an immediate sync.
func (s *FeedSyncScheduler) RunNow() {
	go s.runSync()
}

// IsRunning returns whether the scheduler is active.
func (s *FeedSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a sync is currently in progress.
func (s *FeedSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// LastResult returns the outcome of the latest successful tick, if any.
func (s *FeedSyncScheduler) LastResult() *syncer.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// GetNextRunTime returns when the next sync will occur.
func (s *FeedSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

func (s *FeedSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Feed sync: skipped (already syncing)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	res, err := s.refresher.RefreshFeed(ctx, false)
	if err != nil {
		log.Printf("Feed sync: error - %v", err)
		return
	}

	s.mu.Lock()
	s.lastResult = &res
	s.mu.Unlock()

	switch res.Status {
	case entities.SyncStatusCached:
		log.Printf("Feed sync: cache still fresh")
	case entities.SyncStatusDegraded:
		log.Printf("Feed sync: warning - serving cached feed: %v", res.Cause)
	default:
		log.Printf("Feed sync: %d records on page %d", res.Added, res.Page)
		s.enqueueFollowUps()
	}
}

func (s *FeedSyncScheduler) enqueueFollowUps() {
	if s.enqueuer == nil {
		return
	}
	if _, err := s.enqueuer.Enqueue(tasks.EnrichAllBooksTask{}); err != nil {
		log.Printf("Feed sync: warning - failed to queue enrichment: %v", err)
	}
	if _, err := s.enqueuer.Enqueue(tasks.CleanupOrphanBooksTask{}); err != nil {
		log.Printf("Feed sync: warning - failed to queue cleanup: %v", err)
	}
}
