package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ClientRateLimit applies a per-client token bucket, keyed by client
// IP. Used on the debug console, which fans out real HTTP calls and
// must not be hammerable anonymously. This is separate from the export
// throttle, which is per (document, actor) and shared across
// instances.
func ClientRateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	clients := make(map[string]*client)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		entry, ok := clients[ip]
		if !ok {
			// Opportunistic prune keeps the map bounded without a
			// background task.
			if len(clients) > 1024 {
				cutoff := time.Now().Add(-10 * time.Minute)
				for k, v := range clients {
					if v.lastSeen.Before(cutoff) {
						delete(clients, k)
					}
				}
			}
			entry = &client{limiter: rate.NewLimiter(rps, burst)}
			clients[ip] = entry
		}
		entry.lastSeen = time.Now()
		allowed := entry.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":    false,
				"error": "too many requests",
			})
			return
		}

		c.Next()
	}
}
