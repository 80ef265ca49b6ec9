package middleware

import (
	"github.com/gin-gonic/gin"

	jwtpkg "schoolhub/onboard/pkg/jwt"
	"schoolhub/onboard/pkg/response"
)

// AdminAuth restricts code administration routes to the configured
// administrator ids. Must be used after JWTAuth so claims are present.
func AdminAuth(adminUserIDs []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		allowed[id] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsVal, exists := c.Get(ContextKeyUserClaims)
		if !exists {
			response.Unauthorized(c, "missing authentication")
			c.Abort()
			return
		}
		claims, ok := claimsVal.(*jwtpkg.Claims)
		if !ok {
			response.Unauthorized(c, "invalid claims")
			c.Abort()
			return
		}

		if _, isAdmin := allowed[claims.Subject]; !isAdmin {
			response.Forbidden(c, "administrator access required")
			c.Abort()
			return
		}

		c.Next()
	}
}
