package middleware

import (
	"net/http"
	"strings"

	"github.com/developia-II/mercaplaza-backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and exposes the caller's
// identity to handlers via the "userId" and "role" context keys.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse("A Bearer token is required"))
			c.Abort()
			return
		}

		claims, err := utils.VerifyToken(token)
		if err != nil {
			// 401 rather than 403 so clients know to re-authenticate
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse(err.Error()))
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RoleMiddleware restricts a route to callers holding one of the given roles.
// Must run after AuthMiddleware.
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Role not found in context"))
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if strings.EqualFold(userRole, r) {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, utils.ErrorResponse("You do not have permission to access this resource"))
		c.Abort()
	}
}
