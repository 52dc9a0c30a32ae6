package config

// Default paths for local state
const (
	// DefaultDatabasePath is the default path for the offline cache database
	DefaultDatabasePath = "./shelfsync.db"

	// DefaultCoversCacheDir is where downloaded cover images are kept
	DefaultCoversCacheDir = "./covers"
)
