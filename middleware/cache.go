package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheControlMiddleware marks per-user responses as privately cacheable for
// maxAge. A zero maxAge disables caching.
func CacheControlMiddleware(maxAge time.Duration) gin.HandlerFunc {
	value := "no-store"
	if maxAge > 0 {
		value = "private, max-age=" + strconv.Itoa(int(maxAge.Seconds()))
	}
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
