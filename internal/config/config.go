package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Sync
		OpenLibrary
		Realtime
		FeedSync
		Tasks
		Log
		Covers
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Sync struct {
		FeedQuery        string
		PageSize         int
		StaleAfter       time.Duration
		RetryMaxAttempts int
		RetryBaseDelay   time.Duration
		// PreferredSubjects feed the recommended sort order of the feed
		PreferredSubjects []string
	}
	OpenLibrary struct {
		BaseURL        string
		CoversBaseURL  string
		RequestTimeout time.Duration
		MinInterval    time.Duration // Minimum gap between two requests
	}
	Realtime struct {
		Enabled  bool
		RedisURL string
	}
	FeedSync struct {
		Enabled  bool
		Schedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
		OrphanRetention time.Duration
	}
	Log struct {
		File       string // Empty logs to stderr only
		Verbose    bool
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
	Covers struct {
		CacheDir string
	}
)

func NewConfig() *Config {
	return newConfig(viper.New())
}

func newConfig(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Sync engine defaults
	v.SetDefault("sync_feed_query", "bestseller")
	v.SetDefault("sync_page_size", 20)
	v.SetDefault("sync_stale_after", "15m")
	v.SetDefault("sync_retry_max_attempts", 3)
	v.SetDefault("sync_retry_base_delay", "300ms")
	v.SetDefault("sync_preferred_subjects", "fiction,fantasy,science fiction")

	// Remote catalog defaults
	v.SetDefault("openlibrary_base_url", "https://openlibrary.org")
	v.SetDefault("openlibrary_covers_base_url", "https://covers.openlibrary.org")
	v.SetDefault("openlibrary_request_timeout", "15s")
	v.SetDefault("openlibrary_min_interval", "200ms")

	v.SetDefault("realtime_enabled", false)
	v.SetDefault("redis_url", "redis://localhost:6379/0")

	v.SetDefault("feed_sync_enabled", true)
	v.SetDefault("feed_sync_schedule", "*/15 * * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_orphan_retention", "168h")

	v.SetDefault("log_file", "")
	v.SetDefault("log_verbose", false)
	v.SetDefault("log_max_size_mb", 50)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)

	v.SetDefault("covers_cache_dir", DefaultCoversCacheDir)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Sync: Sync{
			FeedQuery:         v.GetString("SYNC_FEED_QUERY"),
			PageSize:          v.GetInt("SYNC_PAGE_SIZE"),
			StaleAfter:        v.GetDuration("SYNC_STALE_AFTER"),
			RetryMaxAttempts:  v.GetInt("SYNC_RETRY_MAX_ATTEMPTS"),
			RetryBaseDelay:    v.GetDuration("SYNC_RETRY_BASE_DELAY"),
			PreferredSubjects: splitList(v.GetString("SYNC_PREFERRED_SUBJECTS")),
		},
		OpenLibrary: OpenLibrary{
			BaseURL:        v.GetString("OPENLIBRARY_BASE_URL"),
			CoversBaseURL:  v.GetString("OPENLIBRARY_COVERS_BASE_URL"),
			RequestTimeout: v.GetDuration("OPENLIBRARY_REQUEST_TIMEOUT"),
			MinInterval:    v.GetDuration("OPENLIBRARY_MIN_INTERVAL"),
		},
		Realtime: Realtime{
			Enabled:  v.GetBool("REALTIME_ENABLED"),
			RedisURL: v.GetString("REDIS_URL"),
		},
		FeedSync: FeedSync{
			Enabled:  v.GetBool("FEED_SYNC_ENABLED"),
			Schedule: v.GetString("FEED_SYNC_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
			OrphanRetention: v.GetDuration("TASK_ORPHAN_RETENTION"),
		},
		Log: Log{
			File:       v.GetString("LOG_FILE"),
			Verbose:    v.GetBool("LOG_VERBOSE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Covers: Covers{
			CacheDir: v.GetString("COVERS_CACHE_DIR"),
		},
	}
}

// splitList parses a comma-separated env value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
