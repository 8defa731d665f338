package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DEVector-it/mythai.github.io/internal/model"
	"github.com/DEVector-it/mythai.github.io/internal/pkg/jwtutil"
	"github.com/DEVector-it/mythai.github.io/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
	ContextRoleKey     = "role"

	// TokenCookie carries the JWT for browser clients; API clients use
	// the Authorization header instead. The header wins when both are
	// present.
	TokenCookie = "mythai_token"
)

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c)
		if !ok {
			response.Error(c, 401, response.CodeUnauthorized, "missing credentials")
			c.Abort()
			return
		}

		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// RequireAdmin gates a route group on the admin role claim. It must
// run after AuthJWT.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleAny, exists := c.Get(ContextRoleKey)
		role, ok := roleAny.(string)
		if !exists || !ok || role != model.RoleAdmin {
			response.Error(c, 403, response.CodeForbidden, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			return "", false
		}
		return strings.TrimSpace(strings.TrimPrefix(authHeader, prefix)), true
	}

	cookie, err := c.Cookie(TokenCookie)
	if err != nil || strings.TrimSpace(cookie) == "" {
		return "", false
	}
	return strings.TrimSpace(cookie), true
}
