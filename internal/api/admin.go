package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResyncAll pushes every currently-relevant record. Long-running; the HTTP
// write timeout is sized for it.
func (r *Router) ResyncAll(c *gin.Context) {
	summary, err := r.orchestrator.ResyncAll(c.Request.Context())
	if err != nil {
		r.logger.Error("resync_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ProcessDLQ triggers one retry pass outside the normal schedule.
func (r *Router) ProcessDLQ(c *gin.Context) {
	c.JSON(http.StatusOK, r.processor.ProcessOnce(c.Request.Context()))
}

func (r *Router) DLQStats(c *gin.Context) {
	stats, err := r.processor.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (r *Router) DLQItems(c *gin.Context) {
	items, err := r.processor.Items(c.Request.Context(), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (r *Router) DLQFailedItems(c *gin.Context) {
	items, err := r.processor.FailedItems(c.Request.Context(), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ClearDLQ drops every pending entry. Recovery tooling only.
func (r *Router) ClearDLQ(c *gin.Context) {
	removed, err := r.processor.Clear(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	r.logger.Warn("dlq_cleared", zap.Int64("removed", removed))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// CLCAHealth probes the remote ingest endpoint with real credentials.
func (r *Router) CLCAHealth(c *gin.Context) {
	if err := r.client.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "unreachable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		return 50
	}
	return limit
}
