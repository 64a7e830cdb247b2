package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/clipserve/clipserve/internal/pkg/response"
)

const rateLimitTrackedClients = 4096

// rateLimiter allows one request per client+path per window. The expirable
// LRU doubles as the window tracker: an entry that has aged out of the LRU is
// an expired window.
type rateLimiter struct {
	window time.Duration
	seen   *expirable.LRU[string, time.Time]
}

// RateLimit limits each client IP to one request per window on the routes it
// is attached to. A non-positive window disables limiting.
func RateLimit(window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := &rateLimiter{
		window: window,
		seen:   expirable.NewLRU[string, time.Time](rateLimitTrackedClients, nil, window),
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{c.ClientIP(), path}, "|")
	if _, ok := l.seen.Get(key); ok {
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", c.ClientIP()),
			zap.String("path", path),
		)
		response.Error(c, http.StatusTooManyRequests, "too_many_requests", http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	l.seen.Add(key, time.Now())
	c.Next()
}
