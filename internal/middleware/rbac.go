package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-box-api/internal/models"
	appErrors "github.com/noah-isme/complaint-box-api/pkg/errors"
	"github.com/noah-isme/complaint-box-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. A
// request without an authenticated user is 401; one with a user whose
// role is not in the allowed set is 403.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[user.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin privileges required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
