package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
	syncer "github.com/nuforge/ttg-clca-bridge/internal/sync"
	"github.com/nuforge/ttg-clca-bridge/pkg/clcaclient"
)

type syncFn func(ctx context.Context, id int64) (*clcaclient.IngestResult, error)

// SyncEvent pushes one event to CLCA. The caller is never blocked by an
// ingestion failure: a retryable failure is queued and reported as accepted,
// so the club app can carry on.
func (r *Router) SyncEvent(c *gin.Context) {
	r.handleSync(c, r.orchestrator.SyncEvent)
}

// SyncGame pushes one catalog game to CLCA.
func (r *Router) SyncGame(c *gin.Context) {
	r.handleSync(c, r.orchestrator.SyncGame)
}

// ArchiveEvent tells CLCA the event is no longer externally visible.
func (r *Router) ArchiveEvent(c *gin.Context) {
	r.handleSync(c, r.orchestrator.ArchiveEvent)
}

// ArchiveGame tells CLCA the game is no longer externally visible.
func (r *Router) ArchiveGame(c *gin.Context) {
	r.handleSync(c, r.orchestrator.ArchiveGame)
}

func (r *Router) handleSync(c *gin.Context, fn syncFn) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result, err := fn(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, syncer.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		case isValidationError(err):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			// Send failed; the orchestrator already queued or recorded it.
			r.logger.Warn("sync_deferred", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusAccepted, gin.H{"status": "queued", "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func isValidationError(err error) bool {
	var verr *content.ValidationError
	return errors.As(err, &verr)
}
