package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects mutation requests whose body is not JSON. Requests
// without a body pass through untouched: like and unlike are bodyless POSTs
// and must not be forced to declare a media type.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		if c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		ct := strings.ToLower(c.GetHeader("Content-Type"))

		// "application/json; charset=utf-8" counts
		if !strings.HasPrefix(ct, "application/json") {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": gin.H{
					"code":    "unsupported_media_type",
					"message": "Content-Type must be application/json",
				},
			})
			return
		}

		c.Next()
	}
}
