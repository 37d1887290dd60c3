package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
)

const (
	CtxUserID   = "user_id"
	CtxIdentity = "identity"
)

// SessionResolver turns a session token into an identity.
type SessionResolver interface {
	Resolve(token string) (models.Identity, error)
}

// public endpoints that do not require a session
func isPublicPath(path string) bool {
	if path == "/session" {
		return true
	}
	return strings.HasPrefix(path, "/swagger") ||
		strings.HasPrefix(path, "/healthz")
}

// BearerToken reads the session token from the Authorization header, or from
// the "token" query parameter for websocket upgrades.
func BearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(c.Query("token"))
}

func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1) preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		// 2) public paths
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		// 3) token
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		// 4) resolve the session
		id, err := sessions.Resolve(token)
		if err != nil || id.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 5) identity into the context
		c.Set(CtxUserID, id.UserID)
		c.Set(CtxIdentity, id)

		c.Next()
	}
}
