// Package interfaces holds compile-time checks that the concrete types wired
// by the entrypoint satisfy the narrow interfaces their consumers declare.
//
// # Extension Points
//
//   - syncer.Searcher: remote paginated search (openlibrary.Client)
//   - syncer.Store: persisted paged-query store (books.Repository)
//   - syncer.ProgressReporter: per-tag sync status (sync.Repository)
//   - metadata.DescriptionProvider: long descriptions for detail views
//   - http.RealtimeStore: favorites and comments (realtime.Store)
//   - http.TaskQueue / scheduler.Enqueuer: background work (tasks.Client)
//
// Consumers declare interfaces where they are used; this package only
// verifies the wiring.
package interfaces
