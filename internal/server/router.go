// Package server exposes the core's consumer interface over HTTP.
package server

import (
	"context"
	"time"

	"github.com/dmehra2102/PostDeck/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type Options struct {
	RequestTimeout time.Duration
	EnableMetrics  bool
}

type Handlers struct {
	core   *app.Core
	logger *zap.Logger
}

func NewHandlers(core *app.Core, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{core: core, logger: logger}
}

// NewRouter registers every route.
//
//	GET    /healthz
//	GET    /metrics
//	GET    /views              list view names
//	GET    /views/:name        read a view; query parameters are view params
//	GET    /fetch/*path        cached read of the remote resource
//	POST   /refetch/*path      read bypassing the cached payload
//	POST   /mutations/:resource
//	PUT    /mutations/:resource/:id
//	DELETE /mutations/:resource/:id
//	POST   /session            login
//	DELETE /session            logout
//	POST   /actions/filter
//	POST   /actions/page
//	POST   /actions/theme
//	GET    /cache/stats
//	GET    /cache/entry?key=
//	POST   /cache/invalidate
func NewRouter(h *Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware("postdeck"), requestLogger(h.logger))
	if opts.RequestTimeout > 0 {
		r.Use(requestTimeout(opts.RequestTimeout))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if opts.EnableMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/views", h.ListViews)
	r.GET("/views/:name", h.GetView)

	r.GET("/fetch/*path", h.Fetch)
	r.POST("/refetch/*path", h.Refetch)

	r.POST("/mutations/:resource", h.Create)
	r.PUT("/mutations/:resource/:id", h.Update)
	r.DELETE("/mutations/:resource/:id", h.Delete)

	r.POST("/session", h.Login)
	r.DELETE("/session", h.Logout)

	actions := r.Group("/actions")
	actions.POST("/filter", h.SetFilter)
	actions.POST("/page", h.SetPage)
	actions.POST("/theme", h.SetTheme)

	cache := r.Group("/cache")
	cache.GET("/stats", h.CacheStats)
	cache.GET("/entry", h.CacheEntry)
	cache.POST("/invalidate", h.Invalidate)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if c.Writer.Status() >= 500 {
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
