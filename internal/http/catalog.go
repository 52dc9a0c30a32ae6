package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"gorm.io/gorm"

	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/recommend"
	"github.com/mrlokans/shelfsync/internal/syncer"
	"github.com/mrlokans/shelfsync/internal/syncpolicy"
	"github.com/mrlokans/shelfsync/internal/tasks"
)

// SyncResponse is returned by every refresh and load-more route.
type SyncResponse struct {
	Tag     string              `json:"tag"`
	Query   string              `json:"query,omitempty"`
	Page    int                 `json:"page"`
	Status  entities.SyncStatus `json:"status"`
	Added   int                 `json:"added"`
	Warning string              `json:"warning,omitempty"`
	Books   []entities.Book     `json:"books"`
}

// ListResponse wraps a cached list.
type ListResponse struct {
	Query string          `json:"query,omitempty"`
	Books []entities.Book `json:"books"`
	Total int             `json:"total"`
}

// CatalogController serves the feed, search lists and book details.
type CatalogController struct {
	syncer    CatalogSyncer
	tasks     TaskEnqueuer
	scorer    recommend.Scorer
	favorites FavoritesStore
}

// NewCatalogController creates a new CatalogController. tasks and favorites
// may be nil.
func NewCatalogController(s CatalogSyncer, tasks TaskEnqueuer, scorer recommend.Scorer, favorites FavoritesStore) *CatalogController {
	return &CatalogController{
		syncer:    s,
		tasks:     tasks,
		scorer:    scorer,
		favorites: favorites,
	}
}

// GetFeed handles GET /api/feed
// Supports sort=recommended, optionally personalised with uid.
func (cc *CatalogController) GetFeed(c *gin.Context) {
	books, err := cc.syncer.Feed(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "load feed")
		return
	}

	switch c.Query("sort") {
	case "", "default":
	case "recommended":
		books = cc.scorer.Rank(books, cc.favoriteSet(c.Request.Context(), c.Query("uid")))
	default:
		respondBadRequest(c, "invalid sort")
		return
	}

	c.JSON(http.StatusOK, ListResponse{Books: books, Total: len(books)})
}

// RefreshFeed handles POST /api/feed/refresh?force=&async=
func (cc *CatalogController) RefreshFeed(c *gin.Context) {
	force, ok := parseBoolQuery(c, "force")
	if !ok {
		return
	}
	cc.runSync(c, tasks.RefreshFeedTask{Force: force}, func(ctx context.Context) (syncer.Result, error) {
		return cc.syncer.RefreshFeed(ctx, force)
	})
}

// LoadMoreFeed handles POST /api/feed/more?async=
func (cc *CatalogController) LoadMoreFeed(c *gin.Context) {
	cc.runSync(c, tasks.LoadMoreTask{}, cc.syncer.LoadMoreFeed)
}

// GetSearch handles GET /api/search?q=
func (cc *CatalogController) GetSearch(c *gin.Context) {
	query := c.Query("q")
	books, err := cc.syncer.SearchResults(c.Request.Context(), query)
	if err != nil {
		respondInternalError(c, err, "load search results")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Query: query, Books: books, Total: len(books)})
}

// RefreshSearch handles POST /api/search/refresh?q=&async=
func (cc *CatalogController) RefreshSearch(c *gin.Context) {
	query := c.Query("q")
	cc.runSync(c, tasks.RefreshSearchTask{Query: query}, func(ctx context.Context) (syncer.Result, error) {
		return cc.syncer.RefreshSearch(ctx, query)
	})
}

// LoadMoreSearch handles POST /api/search/more?q=&async=
func (cc *CatalogController) LoadMoreSearch(c *gin.Context) {
	query := c.Query("q")
	cc.runSync(c, tasks.LoadMoreTask{Query: query}, func(ctx context.Context) (syncer.Result, error) {
		return cc.syncer.LoadMoreSearch(ctx, query)
	})
}

// GetBook handles GET /api/books/:id
func (cc *CatalogController) GetBook(c *gin.Context) {
	book, err := cc.syncer.Book(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "load book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (cc *CatalogController) runSync(c *gin.Context, task backlite.Task, run func(ctx context.Context) (syncer.Result, error)) {
	async, ok := parseBoolQuery(c, "async")
	if !ok {
		return
	}
	if async {
		cc.enqueue(c, task)
		return
	}

	ctx := c.Request.Context()
	res, err := run(ctx)
	if err != nil {
		respondSyncError(c, err)
		return
	}

	resp := SyncResponse{
		Tag:    res.Tag,
		Query:  res.Query,
		Page:   res.Page,
		Status: res.Status,
		Added:  res.Added,
	}
	if res.Cause != nil {
		resp.Warning = res.Cause.Error()
	}

	if res.Tag != "" {
		books, err := cc.listForResult(ctx, res)
		if err != nil {
			respondInternalError(c, err, "load synced list")
			return
		}
		resp.Books = books
	} else {
		resp.Books = []entities.Book{}
	}

	c.JSON(http.StatusOK, resp)
}

func (cc *CatalogController) listForResult(ctx context.Context, res syncer.Result) ([]entities.Book, error) {
	if res.Tag == syncpolicy.FeedTag {
		return cc.syncer.Feed(ctx)
	}
	return cc.syncer.SearchResults(ctx, res.Query)
}

func (cc *CatalogController) enqueue(c *gin.Context, task backlite.Task) {
	if cc.tasks == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is disabled")
		return
	}
	id, err := cc.tasks.Enqueue(task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+task.Config().Name)
		return
	}
	respondAccepted(c, "task enqueued", gin.H{"task_id": id, "type": task.Config().Name})
}

func (cc *CatalogController) favoriteSet(ctx context.Context, userID string) map[string]bool {
	if cc.favorites == nil || userID == "" {
		return nil
	}
	ids, err := cc.favorites.FavoriteIDs(ctx, userID)
	if err != nil {
		// Ranking without favorites is still useful.
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// respondSyncError maps an outright sync failure to a response.
func respondSyncError(c *gin.Context, err error) {
	var fetchErr *syncer.FetchError
	switch {
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "remote catalog unavailable and no cached data",
			Code:  "sync_failed",
			Details: gin.H{
				"tag":   fetchErr.Tag,
				"page":  fetchErr.Page,
				"cause": fetchErr.Err.Error(),
			},
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusServiceUnavailable, "sync cancelled")
	default:
		respondInternalError(c, err, "sync")
	}
}
