package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional dependencies left nil in RouterConfig disable their routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	var realtimePinger Pinger
	var favorites FavoritesStore
	if cfg.Realtime != nil {
		realtimePinger = cfg.Realtime
		favorites = cfg.Realtime
	}
	var enqueuer TaskEnqueuer
	if cfg.TaskQueue != nil {
		enqueuer = cfg.TaskQueue
	}

	health := NewHealthController(cfg.Database, realtimePinger, cfg.Version)
	router.GET("/health", health.Status)

	catalog := NewCatalogController(cfg.Syncer, enqueuer, cfg.Scorer, favorites)

	api := router.Group("/api")
	{
		api.GET("/feed", catalog.GetFeed)
		api.POST("/feed/refresh", catalog.RefreshFeed)
		api.POST("/feed/more", catalog.LoadMoreFeed)

		api.GET("/search", catalog.GetSearch)
		api.POST("/search/refresh", catalog.RefreshSearch)
		api.POST("/search/more", catalog.LoadMoreSearch)

		api.GET("/books/:id", catalog.GetBook)
	}

	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.Syncer)
		api.GET("/books/:id/cover", coversController.GetCover)
	}

	if cfg.SyncProgress != nil {
		syncStatus := NewSyncStatusController(cfg.SyncProgress)
		api.GET("/sync/status", syncStatus.List)
	}

	if cfg.Realtime != nil {
		favoritesController := NewFavoritesController(cfg.Realtime, cfg.Syncer)
		api.GET("/users/:uid/favorites", favoritesController.List)
		api.POST("/users/:uid/favorites/:bookId", favoritesController.Toggle)
		api.DELETE("/users/:uid/favorites/:bookId", favoritesController.Remove)

		comments := NewCommentsController(cfg.Realtime)
		api.GET("/books/:id/comments", comments.List)
		api.POST("/books/:id/comments", comments.Create)
		api.PUT("/books/:id/comments/:cid", comments.Update)
		api.DELETE("/books/:id/comments/:cid", comments.Delete)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
