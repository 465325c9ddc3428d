package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/arkan-dev/preskool-api/internal/models"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
	"github.com/arkan-dev/preskool-api/pkg/response"
)

// RequireAdmin restricts a route to admin-flagged accounts.
func RequireAdmin() gin.HandlerFunc {
	return requireFlags(func(claims *models.JWTClaims) bool {
		return claims.IsAdmin
	})
}

// RequireStaff restricts a route to accounts carrying either staff flag. A
// signed-in account without a flag gets a 403 envelope, not a redirect.
func RequireStaff() gin.HandlerFunc {
	return requireFlags(func(claims *models.JWTClaims) bool {
		return claims.IsStaff()
	})
}

func requireFlags(allow func(*models.JWTClaims) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok || !allow(claims) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
