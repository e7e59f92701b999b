package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/postline/internal/auth"
	"github.com/geocoder89/postline/internal/config"
	"github.com/geocoder89/postline/internal/domain/user"
	"github.com/geocoder89/postline/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserResolver interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserResolver
}

func NewAuthMiddleware(jwt TokenVerifier, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth gates a route behind a bearer token. The claim's user id is
// resolved against the store on every request; a token for a deleted user is
// rejected as unauthenticated, not as "not found".
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.StripBearer(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing or invalid Authorization header",
				},
			})
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Invalid or expired token",
				},
			})
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, claims.UserID)

		if err != nil {
			if errors.Is(err, postgres.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "unauthorized",
						"message": "Invalid or expired token",
					},
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not authenticate request",
				},
			})
			return
		}

		// Stash the resolved identity on the context
		c.Set(ctxUserKey, u)

		c.Next()
	}
}

// Helpers so handlers don't need to know the magic keys.

func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	u, ok := CurrentUser(c)
	if !ok {
		return "", false
	}
	return u.ID, true
}
