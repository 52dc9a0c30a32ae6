// Package database opens the offline cache and migrates its schema.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, SQLite pragmas, migrations
//	├── books/           # Records, per-tag links, pagination state, watchers
//	└── sync/            # Per-tag sync status
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./shelfsync.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	progress := sync.NewRepository(db.DB)
//
//	list, err := booksRepo.BooksForQuery(ctx, "__feed__")
//	status, err := progress.GetSyncProgress(ctx, "__feed__")
//
// # Concurrency
//
// The cache runs in WAL mode with a busy timeout and immediate transactions,
// so the feed and search tags can commit concurrently from the HTTP layer,
// the task queue and the scheduler.
package database
