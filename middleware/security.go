package middleware

import (
	"net/http"

	"lifeloop/utils"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimiter caps request bodies. Engine endpoints take no payload
// beyond small JSON options, so the limit can be tight.
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, &utils.Response{
				Status: http.StatusRequestEntityTooLarge,
				Error:  "Request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
