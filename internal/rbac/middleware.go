package rbac

import (
	"net/http"

	"complaint-hotline/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole allows the request through when the caller holds one of
// the given roles. admin bypasses every check.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	permitted := func(role string) bool {
		if IsAdmin(role) {
			return true
		}
		for _, r := range allowed {
			if role == r {
				return true
			}
		}
		return false
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if !permitted(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
