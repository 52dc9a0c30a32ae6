package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SyncStatusController reports the last sync outcome of every tag.
type SyncStatusController struct {
	progress SyncStatusReader
}

// NewSyncStatusController creates a new SyncStatusController.
func NewSyncStatusController(progress SyncStatusReader) *SyncStatusController {
	return &SyncStatusController{progress: progress}
}

// List handles GET /api/sync/status
func (sc *SyncStatusController) List(c *gin.Context) {
	progress, err := sc.progress.ListSyncProgress(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list sync status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": progress})
}
