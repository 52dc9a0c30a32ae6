package http

import (
	"github.com/mrlokans/shelfsync/internal/covers"
	"github.com/mrlokans/shelfsync/internal/database"
	"github.com/mrlokans/shelfsync/internal/recommend"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Syncer   CatalogSyncer
	Database *database.Database
	Scorer   recommend.Scorer

	// Per-tag sync status (optional)
	SyncProgress SyncStatusReader

	// Favorites and comments (optional, nil when realtime is disabled)
	Realtime RealtimeStore

	// Background task queue (optional)
	TaskQueue TaskQueue

	// Cover cache (optional)
	CoverCache *covers.Cache

	// Version info
	Version string
}
