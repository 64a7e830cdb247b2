package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipserve/clipserve/internal/cache"
	"github.com/clipserve/clipserve/internal/metrics"
	"github.com/clipserve/clipserve/internal/pkg/response"
	"github.com/clipserve/clipserve/internal/service"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	embed   *service.EmbedService
	cache   *cache.TieredCache
	metrics *metrics.Metrics
	started time.Time
}

func NewHealthHandler(embed *service.EmbedService, c *cache.TieredCache, m *metrics.Metrics) *HealthHandler {
	return &HealthHandler{embed: embed, cache: c, metrics: m, started: time.Now()}
}

func (h *HealthHandler) Health(c *gin.Context) {
	durableStatus := "disabled"
	if h.cache.DurableEnabled() {
		durableStatus = "ok"
		if p, ok := h.cache.Durable().(pinger); ok {
			if err := p.Ping(c.Request.Context()); err != nil {
				durableStatus = "unavailable"
			}
		}
	}
	response.Success(c, gin.H{
		"status":         "healthy",
		"backend":        h.embed.OracleName(),
		"dimension":      h.embed.Dimension(),
		"uptime_seconds": time.Since(h.started).Seconds(),
		"total_requests": h.metrics.RequestCount(),
		"cache": gin.H{
			"durable": durableStatus,
			"fast_entries": h.cache.FastLen(),
		},
	})
}
