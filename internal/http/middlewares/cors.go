package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// The browser surface of this API: token auth plus conditional feed reads.
// PUT and PATCH are absent because no route uses them.
const (
	corsMethods       = "GET,POST,DELETE,OPTIONS"
	corsAllowHeaders  = "Authorization,Content-Type,If-None-Match"
	corsExposeHeaders = "ETag,X-Request-Id"
)

// CORSMiddleware reflects the Origin back when it is on the allow-list.
// An empty allow-list means same-origin only; nothing is reflected.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))

	for _, origin := range allowedOrigins {
		allowed[strings.TrimSpace(origin)] = struct{}{}
	}

	return func(ctx *gin.Context) {
		ctx.Header("Vary", "Origin")

		origin := ctx.GetHeader("Origin")

		if _, ok := allowed[origin]; ok && origin != "" {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Methods", corsMethods)
			ctx.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			ctx.Header("Access-Control-Expose-Headers", corsExposeHeaders)
		}

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
