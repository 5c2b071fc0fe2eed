package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by Middleware for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// Middleware verifies the bearer token and injects the authenticated
// identity into the request context. Everything past this point trusts
// that identity.
func Middleware(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := issuer.Verify(token, PurposeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated user id placed by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

// Role returns the authenticated role placed by Middleware.
func Role(c *gin.Context) string {
	return c.GetString(CtxRole)
}
