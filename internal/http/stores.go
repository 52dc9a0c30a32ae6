package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/syncer"
)

// This file consolidates the interfaces HTTP controllers depend on. Each
// controller takes the narrowest one it needs.

// BookGetter provides read access to cached records.
type BookGetter interface {
	Book(ctx context.Context, id string) (*entities.Book, error)
}

// CatalogSyncer is the sync engine surface behind the feed and search routes.
type CatalogSyncer interface {
	BookGetter
	RefreshFeed(ctx context.Context, force bool) (syncer.Result, error)
	LoadMoreFeed(ctx context.Context) (syncer.Result, error)
	RefreshSearch(ctx context.Context, query string) (syncer.Result, error)
	LoadMoreSearch(ctx context.Context, query string) (syncer.Result, error)
	Feed(ctx context.Context) ([]entities.Book, error)
	SearchResults(ctx context.Context, query string) ([]entities.Book, error)
}

// TaskEnqueuer queues background work.
type TaskEnqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// TaskQueue adds status lookups to TaskEnqueuer.
type TaskQueue interface {
	TaskEnqueuer
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// SyncStatusReader lists the last sync outcome per tag.
type SyncStatusReader interface {
	ListSyncProgress(ctx context.Context) ([]entities.SyncProgress, error)
}

// FavoritesStore manages per-user favorites.
type FavoritesStore interface {
	ToggleFavorite(ctx context.Context, userID string, book entities.Book) (bool, error)
	RemoveFavorite(ctx context.Context, userID, bookID string) (bool, error)
	Favorites(ctx context.Context, userID string) ([]entities.Favorite, error)
	FavoriteIDs(ctx context.Context, userID string) ([]string, error)
	IsFavorite(ctx context.Context, userID, bookID string) (bool, error)
}

// CommentsStore manages per-book reviews.
type CommentsStore interface {
	AddComment(ctx context.Context, bookID, userID, userName, text string, rating int) (*entities.Comment, error)
	UpdateComment(ctx context.Context, bookID, commentID, userID, text string, rating int) (*entities.Comment, error)
	DeleteComment(ctx context.Context, bookID, commentID, userID string) error
	Comments(ctx context.Context, bookID string) ([]entities.Comment, error)
}

// RealtimeStore combines favorites, comments and a liveness check.
type RealtimeStore interface {
	FavoritesStore
	CommentsStore
	Ping(ctx context.Context) error
}
