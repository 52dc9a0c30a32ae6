package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfsync/internal/config"
	"github.com/mrlokans/shelfsync/internal/covers"
	http_controllers "github.com/mrlokans/shelfsync/internal/http"
	"github.com/mrlokans/shelfsync/internal/logging"
	"github.com/mrlokans/shelfsync/internal/metadata"
	"github.com/mrlokans/shelfsync/internal/realtime"
	"github.com/mrlokans/shelfsync/internal/recommend"
	"github.com/mrlokans/shelfsync/internal/scheduler"
	"github.com/mrlokans/shelfsync/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then shut down within the configured timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	logCloser := logging.Setup(logging.Config{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Verbose:    cfg.Log.Verbose,
	})
	defer logCloser.Close()

	log.Printf("Starting Shelfsync v%s", version)

	catalog, err := OpenCatalog(cfg, false)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Cover cache keeps detail images available offline
	coverCache, err := covers.NewCache(cfg.Covers.CacheDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
	} else {
		log.Printf("Cover cache initialized at %s", cfg.Covers.CacheDir)
	}

	// Description enrichment from the remote work records
	enricher := metadata.NewEnricher(catalog.Remote, catalog.Books)
	enricher.SetProgressReporter(catalog.Progress)

	// Realtime favorites and comments are optional
	var realtimeStore *realtime.Store
	if cfg.Realtime.Enabled {
		realtimeStore, err = realtime.NewStore(cfg.Realtime.RedisURL)
		if err != nil {
			log.Printf("WARNING: Realtime store unavailable, favorites and comments disabled: %v", err)
			realtimeStore = nil
		} else {
			log.Printf("[REALTIME] connected to %s", cfg.Realtime.RedisURL)
			defer realtimeStore.Close()
		}
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
			OrphanRetention: cfg.Tasks.OrphanRetention,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewSyncQueues(catalog.Engine)...)
		taskClient.Register(
			tasks.NewEnrichBookQueue(enricher),
			tasks.NewEnrichAllBooksQueue(enricher),
			tasks.NewCleanupOrphanBooksQueue(catalog.Books, taskCfg.OrphanRetention),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic feed refresh; the staleness window decides whether it hits the network
	feedScheduler := scheduler.NewFeedSyncScheduler(catalog.Engine, scheduler.Config{
		Enabled:  cfg.FeedSync.Enabled,
		Schedule: cfg.FeedSync.Schedule,
	})
	if taskClient != nil {
		feedScheduler.SetEnqueuer(taskClient)
	}
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	if err := feedScheduler.Start(schedulerCtx); err != nil {
		log.Printf("WARNING: Feed sync scheduler not started: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Syncer:       catalog.Engine,
		Database:     catalog.DB,
		Scorer:       recommend.NewScorer(cfg.Sync.PreferredSubjects),
		SyncProgress: catalog.Progress,
		CoverCache:   coverCache,
		Version:      version,
	}
	if realtimeStore != nil {
		routerCfg.Realtime = realtimeStore
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		feedScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
