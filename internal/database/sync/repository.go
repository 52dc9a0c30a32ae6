// Package sync provides database operations for per-tag sync status tracking.
//
// This package implements the ProgressReporter interface used by the sync engine.
//
// # Interface Implementation
//
//	var _ syncer.ProgressReporter = (*Repository)(nil)
//
// # Usage
//
//	repo := sync.NewRepository(db)
//	err := repo.StartSync(ctx, "__feed__", 1)
package sync

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/shelfsync/internal/entities"
)

// staleAfter is how long a "running" record may go without updates before it is
// treated as interrupted.
const staleAfter = 10 * time.Minute

// Repository handles all sync progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sync repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSyncProgress retrieves the latest sync status for a tag.
func (r *Repository) GetSyncProgress(ctx context.Context, tag string) (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.db.WithContext(ctx).Where("query_tag = ?", tag).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// ListSyncProgress returns every tracked tag, most recently updated first.
func (r *Repository) ListSyncProgress(ctx context.Context) ([]entities.SyncProgress, error) {
	var progress []entities.SyncProgress
	err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&progress).Error
	return progress, err
}

// StartSync creates or resets the status record of a tag.
// Implements ProgressReporter.StartSync.
func (r *Repository) StartSync(ctx context.Context, tag string, page int) error {
	db := r.db.WithContext(ctx)

	var progress entities.SyncProgress
	result := db.Where("query_tag = ?", tag).Limit(1).Find(&progress)
	if result.Error != nil {
		return result.Error
	}

	now := time.Now()
	if result.RowsAffected == 0 {
		progress = entities.SyncProgress{
			QueryTag:  tag,
			Status:    entities.SyncStatusRunning,
			Page:      page,
			StartedAt: now,
			UpdatedAt: now,
		}
		return db.Create(&progress).Error
	}

	progress.Status = entities.SyncStatusRunning
	progress.Page = page
	progress.Added = 0
	progress.Error = ""
	progress.StartedAt = now
	progress.UpdatedAt = now
	progress.CompletedAt = nil

	return db.Save(&progress).Error
}

// CompleteSync stores the final outcome of a sync.
// Implements ProgressReporter.CompleteSync.
func (r *Repository) CompleteSync(ctx context.Context, tag string, status entities.SyncStatus, added int, errorMsg string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&entities.SyncProgress{}).
		Where("query_tag = ?", tag).
		Updates(map[string]any{
			"status":       status,
			"added":        added,
			"error":        errorMsg,
			"updated_at":   now,
			"completed_at": now,
		}).Error
}

// IsSyncRunning checks if a sync is currently in progress for tag.
// A sync is considered interrupted if not updated within staleAfter.
func (r *Repository) IsSyncRunning(ctx context.Context, tag string) (bool, error) {
	var progress entities.SyncProgress
	err := r.db.WithContext(ctx).
		Where("query_tag = ? AND status = ?", tag, entities.SyncStatusRunning).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if progress.UpdatedAt.Before(time.Now().Add(-staleAfter)) {
		_ = r.CompleteSync(ctx, tag, entities.SyncStatusFailed, 0, "sync was interrupted")
		return false, nil
	}

	return true, nil
}
