// Package syncer is the offline-first sync engine. It decides when a tag's
// cached list is refetched, fetches pages through the retry policy, merges
// them into the persisted store and degrades to cached data on failure.
package syncer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/shelfsync/internal/database/books"
	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/logging"
	"github.com/mrlokans/shelfsync/internal/openlibrary"
	"github.com/mrlokans/shelfsync/internal/syncpolicy"
)

const (
	DefaultFeedQuery = "bestseller"
	DefaultPageSize  = 20
)

// Searcher is the remote search transport.
type Searcher interface {
	Search(ctx context.Context, query string, page, limit int) ([]openlibrary.SearchDoc, error)
}

// Store is the persisted paged-query store.
type Store interface {
	LastLoadedPage(ctx context.Context, tag string) (int, error)
	LastFetchedAt(ctx context.Context, tag string) (int64, error)
	BooksForQuery(ctx context.Context, tag string) ([]entities.Book, error)
	GetBookByID(ctx context.Context, id string) (*entities.Book, error)
	ReplaceQuery(ctx context.Context, tag string, books []entities.Book, page int, fetchedAt int64) error
	AppendToQuery(ctx context.Context, tag string, incoming []entities.Book, page int, fetchedAt int64, merge books.MergeFunc) (int, error)
	Watch(ctx context.Context, tag string) (<-chan []entities.Book, error)
	WatchBook(ctx context.Context, id string) (<-chan *entities.Book, error)
}

// ProgressReporter records the outcome of each sync per tag.
type ProgressReporter interface {
	StartSync(ctx context.Context, tag string, page int) error
	CompleteSync(ctx context.Context, tag string, status entities.SyncStatus, added int, errorMsg string) error
}

// Config carries the policies the engine composes.
type Config struct {
	FeedQuery string
	PageSize  int
	Sanitizer syncpolicy.Sanitizer
	Staleness syncpolicy.StalenessPolicy
	Retry     syncpolicy.RetryPolicy
	Merge     syncpolicy.MergePolicy
	Mapper    openlibrary.Mapper
}

// DefaultConfig returns the production policies.
func DefaultConfig() Config {
	return Config{
		FeedQuery: DefaultFeedQuery,
		PageSize:  DefaultPageSize,
		Sanitizer: syncpolicy.NewSanitizer(),
		Staleness: syncpolicy.NewStalenessPolicy(0),
		Retry:     syncpolicy.NewRetryPolicy(0, 0),
		Mapper:    openlibrary.NewMapper(),
	}
}

// Result describes a sync call that did not fail outright.
type Result struct {
	Tag    string              `json:"tag"`
	Query  string              `json:"query"`
	Page   int                 `json:"page"`
	Status entities.SyncStatus `json:"status"`
	Added  int                 `json:"added"`
	// Cause is the swallowed failure of a degraded result.
	Cause error `json:"-"`
}

// Degraded reports whether cached data is being served because of a failure.
func (r Result) Degraded() bool {
	return r.Status == entities.SyncStatusDegraded
}

type request struct {
	query string
	tag   string
	reset bool
	force bool
}

// Engine orchestrates refresh and load-more calls. It is safe for concurrent
// use; calls on the same tag run one at a time.
type Engine struct {
	searcher Searcher
	store    Store
	cfg      Config
	locks    *tagLocks
	now      func() time.Time
	progress ProgressReporter
}

// NewEngine creates an engine over the given transport and store.
func NewEngine(searcher Searcher, store Store, cfg Config) *Engine {
	if cfg.FeedQuery == "" {
		cfg.FeedQuery = DefaultFeedQuery
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Sanitizer.MaxLength <= 0 {
		cfg.Sanitizer = syncpolicy.NewSanitizer()
	}
	if cfg.Staleness.StaleAfter <= 0 {
		cfg.Staleness = syncpolicy.NewStalenessPolicy(0)
	}
	if cfg.Mapper.Covers.Sources == nil {
		cfg.Mapper = openlibrary.NewMapper()
	}
	return &Engine{
		searcher: searcher,
		store:    store,
		cfg:      cfg,
		locks:    newTagLocks(),
		now:      time.Now,
	}
}

// SetProgressReporter enables per-tag status tracking (optional).
func (e *Engine) SetProgressReporter(reporter ProgressReporter) {
	e.progress = reporter
}

// SetClock replaces the wall clock.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// SearchTag returns the tag a query syncs into, or "" for a blank query.
func (e *Engine) SearchTag(query string) string {
	if e.cfg.Sanitizer.Sanitize(query) == "" {
		return ""
	}
	return e.cfg.Sanitizer.SearchTag(query)
}

// RefreshFeed fetches page 1 of the feed and replaces the cached list. Without
// force the call is skipped while the cached feed is still fresh.
func (e *Engine) RefreshFeed(ctx context.Context, force bool) (Result, error) {
	return e.sync(ctx, request{query: e.cfg.FeedQuery, tag: syncpolicy.FeedTag, reset: true, force: force})
}

// LoadMoreFeed appends the next feed page.
func (e *Engine) LoadMoreFeed(ctx context.Context) (Result, error) {
	return e.sync(ctx, request{query: e.cfg.FeedQuery, tag: syncpolicy.FeedTag, force: true})
}

// RefreshSearch fetches page 1 for query and replaces the cached list. A query
// that sanitizes to nothing is a no-op.
func (e *Engine) RefreshSearch(ctx context.Context, query string) (Result, error) {
	return e.search(ctx, query, true)
}

// LoadMoreSearch appends the next page for query.
func (e *Engine) LoadMoreSearch(ctx context.Context, query string) (Result, error) {
	return e.search(ctx, query, false)
}

func (e *Engine) search(ctx context.Context, query string, reset bool) (Result, error) {
	clean := e.cfg.Sanitizer.Sanitize(query)
	if clean == "" {
		return Result{Status: entities.SyncStatusSkipped}, nil
	}
	return e.sync(ctx, request{query: clean, tag: e.cfg.Sanitizer.SearchTag(query), reset: reset, force: true})
}

func (e *Engine) sync(ctx context.Context, req request) (Result, error) {
	unlock, err := e.locks.acquire(ctx, req.tag)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	page := 1
	if !req.reset {
		last, err := e.store.LastLoadedPage(ctx, req.tag)
		if err != nil {
			return Result{}, fmt.Errorf("read last page of %s: %w", req.tag, err)
		}
		page = last + 1
	}
	res := Result{Tag: req.tag, Query: req.query, Page: page}

	if !req.force {
		lastFetchedAt, err := e.store.LastFetchedAt(ctx, req.tag)
		if err != nil {
			return Result{}, fmt.Errorf("read fetch time of %s: %w", req.tag, err)
		}
		if !e.cfg.Staleness.IsStale(lastFetchedAt, e.now().UnixMilli()) {
			logging.Debugf("[SYNC] %s is fresh, skipping remote fetch", req.tag)
			res.Status = entities.SyncStatusCached
			e.reportComplete(ctx, req.tag, res.Status, 0, "")
			return res, nil
		}
	}

	e.reportStart(ctx, req.tag, page)
	logging.Debugf("[SYNC] fetching %s page %d (query=%q)", req.tag, page, req.query)

	added, err := e.fetchAndStore(ctx, req, page)
	if err == nil {
		res.Status = entities.SyncStatusFresh
		res.Added = added
		e.reportComplete(ctx, req.tag, res.Status, added, "")
		return res, nil
	}

	return e.degrade(ctx, res, err)
}

func (e *Engine) fetchAndStore(ctx context.Context, req request, page int) (int, error) {
	var docs []openlibrary.SearchDoc
	err := e.cfg.Retry.Run(ctx, func(ctx context.Context) error {
		var err error
		docs, err = e.searcher.Search(ctx, req.query, page, e.cfg.PageSize)
		return err
	})
	if err != nil {
		return 0, err
	}

	fetchedAt := e.now().UnixMilli()
	incoming := e.cfg.Merge.Merge(nil, e.cfg.Mapper.MapAll(docs, fetchedAt))

	// Nothing is committed for a call abandoned during the fetch.
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if req.reset {
		if err := e.store.ReplaceQuery(ctx, req.tag, incoming, page, fetchedAt); err != nil {
			return 0, err
		}
		return len(incoming), nil
	}
	return e.store.AppendToQuery(ctx, req.tag, incoming, page, fetchedAt, e.cfg.Merge.Merge)
}

func (e *Engine) degrade(ctx context.Context, res Result, cause error) (Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		e.reportComplete(ctx, res.Tag, entities.SyncStatusFailed, 0, ctxErr.Error())
		return Result{}, ctxErr
	}

	cached, err := e.store.BooksForQuery(ctx, res.Tag)
	if err == nil && len(cached) > 0 {
		log.Printf("[SYNC] warning - %s page %d failed, serving %d cached records: %v", res.Tag, res.Page, len(cached), cause)
		res.Status = entities.SyncStatusDegraded
		res.Cause = cause
		e.reportComplete(ctx, res.Tag, res.Status, 0, cause.Error())
		return res, nil
	}
	if err != nil {
		log.Printf("[SYNC] error - reading cached %s: %v", res.Tag, err)
	}

	fetchErr := &FetchError{Tag: res.Tag, Page: res.Page, Err: cause}
	e.reportComplete(ctx, res.Tag, entities.SyncStatusFailed, 0, fetchErr.Error())
	return Result{}, fetchErr
}

func (e *Engine) reportStart(ctx context.Context, tag string, page int) {
	if e.progress == nil {
		return
	}
	if err := e.progress.StartSync(context.WithoutCancel(ctx), tag, page); err != nil {
		log.Printf("[SYNC] warning - failed to record sync start for %s: %v", tag, err)
	}
}

func (e *Engine) reportComplete(ctx context.Context, tag string, status entities.SyncStatus, added int, errorMsg string) {
	if e.progress == nil {
		return
	}
	if err := e.progress.CompleteSync(context.WithoutCancel(ctx), tag, status, added, errorMsg); err != nil {
		log.Printf("[SYNC] warning - failed to record sync result for %s: %v", tag, err)
	}
}

// Feed returns the cached feed in display order.
func (e *Engine) Feed(ctx context.Context) ([]entities.Book, error) {
	return e.store.BooksForQuery(ctx, syncpolicy.FeedTag)
}

// SearchResults returns the cached list for query. A blank query has none.
func (e *Engine) SearchResults(ctx context.Context, query string) ([]entities.Book, error) {
	tag := e.SearchTag(query)
	if tag == "" {
		return []entities.Book{}, nil
	}
	return e.store.BooksForQuery(ctx, tag)
}

// Book returns a cached record by id.
func (e *Engine) Book(ctx context.Context, id string) (*entities.Book, error) {
	return e.store.GetBookByID(ctx, id)
}

// ObserveFeed streams the feed list after every committed write.
func (e *Engine) ObserveFeed(ctx context.Context) (<-chan []entities.Book, error) {
	return e.store.Watch(ctx, syncpolicy.FeedTag)
}

// ObserveSearch streams the list for query. A blank query yields a closed
// channel after one empty list.
func (e *Engine) ObserveSearch(ctx context.Context, query string) (<-chan []entities.Book, error) {
	tag := e.SearchTag(query)
	if tag == "" {
		ch := make(chan []entities.Book, 1)
		ch <- []entities.Book{}
		close(ch)
		return ch, nil
	}
	return e.store.Watch(ctx, tag)
}

// ObserveBook streams one record, nil while it is not cached.
func (e *Engine) ObserveBook(ctx context.Context, id string) (<-chan *entities.Book, error) {
	return e.store.WatchBook(ctx, id)
}
