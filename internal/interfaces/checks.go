package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/shelfsync/internal/database/books"
	"github.com/mrlokans/shelfsync/internal/database/sync"
	"github.com/mrlokans/shelfsync/internal/http"
	"github.com/mrlokans/shelfsync/internal/metadata"
	"github.com/mrlokans/shelfsync/internal/openlibrary"
	"github.com/mrlokans/shelfsync/internal/realtime"
	"github.com/mrlokans/shelfsync/internal/scheduler"
	"github.com/mrlokans/shelfsync/internal/syncer"
	"github.com/mrlokans/shelfsync/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Engine store
var _ syncer.Store = (*books.Repository)(nil)

// Enrichment and cleanup
var _ metadata.BookUpdater = (*books.Repository)(nil)
var _ tasks.OrphanBooksCleaner = (*books.Repository)(nil)

// =============================================================================
// External Services
// =============================================================================

var _ syncer.Searcher = (*openlibrary.Client)(nil)
var _ metadata.DescriptionProvider = (*openlibrary.Client)(nil)
var _ http.RealtimeStore = (*realtime.Store)(nil)

// =============================================================================
// Progress Tracking
// =============================================================================

var _ syncer.ProgressReporter = (*sync.Repository)(nil)
var _ metadata.ProgressReporter = (*sync.Repository)(nil)
var _ http.SyncStatusReader = (*sync.Repository)(nil)

// =============================================================================
// Sync Surfaces
// =============================================================================

var _ http.CatalogSyncer = (*syncer.Engine)(nil)
var _ tasks.Syncer = (*syncer.Engine)(nil)
var _ scheduler.FeedRefresher = (*syncer.Engine)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
