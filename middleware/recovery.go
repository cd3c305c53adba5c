package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"lifeloop/utils"

	"github.com/gin-gonic/gin"
)

func EnhancedRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered (request_id=%s) %s %s: %v\n%s",
					c.GetString("request_id"), c.Request.Method, c.Request.URL.Path, err, debug.Stack())
				utils.TrackError("panic", "recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, &utils.Response{
					Status: http.StatusInternalServerError,
					Error:  "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
