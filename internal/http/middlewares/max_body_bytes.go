package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies before they reach the JSON decoder. The
// largest legitimate payload here is a registration form or a 300 character
// post, so the cap is generous for clients and tight for abuse.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)

		ctx.Next()
	}
}
