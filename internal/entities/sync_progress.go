package entities

import (
	"time"
)

type SyncStatus string

const (
	SyncStatusRunning  SyncStatus = "running"
	SyncStatusFresh    SyncStatus = "fresh"
	SyncStatusCached   SyncStatus = "cached"
	SyncStatusDegraded SyncStatus = "degraded"
	SyncStatusSkipped  SyncStatus = "skipped"
	SyncStatusFailed   SyncStatus = "failed"
)

// SyncProgress records the outcome of the most recent sync for a query tag.
type SyncProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	QueryTag    string     `gorm:"size:128;uniqueIndex" json:"query_tag"`
	Status      SyncStatus `gorm:"size:20" json:"status"`
	Page        int        `json:"page"`
	Added       int        `json:"added"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (SyncProgress) TableName() string {
	return "sync_progress"
}
