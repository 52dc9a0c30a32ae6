package entrypoint

import (
	"fmt"

	"github.com/mrlokans/shelfsync/internal/config"
	"github.com/mrlokans/shelfsync/internal/database"
	"github.com/mrlokans/shelfsync/internal/database/books"
	syncrepo "github.com/mrlokans/shelfsync/internal/database/sync"
	"github.com/mrlokans/shelfsync/internal/openlibrary"
	"github.com/mrlokans/shelfsync/internal/syncer"
	"github.com/mrlokans/shelfsync/internal/syncpolicy"
)

// Catalog bundles the offline cache, the remote client and the sync engine.
// Both the server and the one-shot CLI commands build one.
type Catalog struct {
	DB       *database.Database
	Books    *books.Repository
	Progress *syncrepo.Repository
	Remote   *openlibrary.Client
	Engine   *syncer.Engine
}

// OpenCatalog opens the cache database and wires the engine from cfg. quiet
// silences gorm logging.
func OpenCatalog(cfg *config.Config, quiet bool) (*Catalog, error) {
	open := database.NewDatabase
	if quiet {
		open = database.NewQuietDatabase
	}
	db, err := open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	remote := openlibrary.NewClient(
		openlibrary.WithBaseURL(cfg.OpenLibrary.BaseURL),
		openlibrary.WithTimeout(cfg.OpenLibrary.RequestTimeout),
		openlibrary.WithMinInterval(cfg.OpenLibrary.MinInterval),
	)

	bookRepo := books.NewRepository(db.DB)
	progress := syncrepo.NewRepository(db.DB)

	engine := syncer.NewEngine(remote, bookRepo, EngineConfig(cfg))
	engine.SetProgressReporter(progress)

	return &Catalog{
		DB:       db,
		Books:    bookRepo,
		Progress: progress,
		Remote:   remote,
		Engine:   engine,
	}, nil
}

// EngineConfig translates the sync and remote sections of cfg.
func EngineConfig(cfg *config.Config) syncer.Config {
	engineCfg := syncer.DefaultConfig()
	if cfg.Sync.FeedQuery != "" {
		engineCfg.FeedQuery = cfg.Sync.FeedQuery
	}
	if cfg.Sync.PageSize > 0 {
		engineCfg.PageSize = cfg.Sync.PageSize
	}
	engineCfg.Staleness = syncpolicy.NewStalenessPolicy(cfg.Sync.StaleAfter)
	engineCfg.Retry = syncpolicy.NewRetryPolicy(cfg.Sync.RetryMaxAttempts, cfg.Sync.RetryBaseDelay)
	engineCfg.Mapper = openlibrary.Mapper{Covers: openlibrary.NewCoverResolver(cfg.OpenLibrary.CoversBaseURL)}
	return engineCfg
}

// Close releases the cache database.
func (c *Catalog) Close() error {
	return c.DB.Close()
}
