package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipserve/clipserve/internal/metrics"
	"github.com/clipserve/clipserve/internal/middleware"
)

type RouterDeps struct {
	Embed           *EmbedHandler
	Similarity      *SimilarityHandler
	Consistency     *ConsistencyHandler
	Health          *HealthHandler
	Metrics         *metrics.Metrics
	RateLimitWindow time.Duration
}

func RegisterRoutes(r *gin.Engine, deps RouterDeps) {
	r.GET("/health", deps.Health.Health)
	r.GET("/metrics", deps.Metrics.Handler())

	r.POST("/embed/text", deps.Embed.Text)
	r.POST("/embed/image", deps.Embed.Image)
	r.POST("/embed/multimodal", deps.Embed.Multimodal)
	r.POST("/embed/batch", deps.Embed.Batch)

	r.POST("/similarity", deps.Similarity.Similarity)
	r.POST("/search", deps.Similarity.Search)

	// The consistency check encodes every image in the request; rate limit
	// the expensive path only.
	consistency := r.Group("")
	consistency.Use(middleware.RateLimit(deps.RateLimitWindow))
	consistency.POST("/character/consistency", deps.Consistency.Check)
}
