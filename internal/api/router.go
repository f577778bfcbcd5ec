package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nuforge/ttg-clca-bridge/internal/api/middleware"
	"github.com/nuforge/ttg-clca-bridge/internal/config"
	"github.com/nuforge/ttg-clca-bridge/internal/dlq"
	syncer "github.com/nuforge/ttg-clca-bridge/internal/sync"
	"github.com/nuforge/ttg-clca-bridge/pkg/clcaclient"
)

type Router struct {
	engine       *gin.Engine
	server       *http.Server
	cfg          *config.Config
	orchestrator *syncer.Orchestrator
	processor    *dlq.Processor
	client       *clcaclient.Client
	logger       *zap.Logger
}

func NewRouter(
	cfg *config.Config,
	orchestrator *syncer.Orchestrator,
	processor *dlq.Processor,
	client *clcaclient.Client,
	logger *zap.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.Logger(logger))

	api := &Router{
		engine:       r,
		cfg:          cfg,
		orchestrator: orchestrator,
		processor:    processor,
		client:       client,
		logger:       logger,
	}

	api.RegisterRoutes()
	return api
}

func (r *Router) RegisterRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Sync triggers, invoked by the club app when a record changes.
	api := r.engine.Group("/api")
	{
		api.POST("/sync/events/:id", r.SyncEvent)
		api.DELETE("/sync/events/:id", r.ArchiveEvent)
		api.POST("/sync/games/:id", r.SyncGame)
		api.DELETE("/sync/games/:id", r.ArchiveGame)
	}

	// Operational tooling, protected by ADMIN_API_TOKEN.
	admin := r.engine.Group("/admin")
	admin.Use(r.adminAuth())
	{
		admin.POST("/resync", r.ResyncAll)
		admin.POST("/dlq/process", r.ProcessDLQ)
		admin.GET("/dlq/stats", r.DLQStats)
		admin.GET("/dlq/items", r.DLQItems)
		admin.GET("/dlq/failed", r.DLQFailedItems)
		admin.DELETE("/dlq", r.ClearDLQ)
		admin.GET("/clca/health", r.CLCAHealth)
	}
}

func (r *Router) Run() error {
	r.server = &http.Server{
		Addr:         ":" + r.cfg.Port,
		Handler:      r.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return r.server.ListenAndServe()
}

func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}

func (r *Router) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := r.cfg.AdminAPIToken
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin api disabled"})
			return
		}

		provided := c.GetHeader("Authorization")
		if len(provided) > 7 && provided[:7] == "Bearer " {
			provided = provided[7:]
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}
