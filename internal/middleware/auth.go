package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-box-api/internal/models"
	"github.com/noah-isme/complaint-box-api/internal/service"
	appErrors "github.com/noah-isme/complaint-box-api/pkg/errors"
	"github.com/noah-isme/complaint-box-api/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved user.
const ContextUserKey = "currentUser"

// Authenticate protects routes by requiring a valid access token whose
// subject still resolves in the user store. Every failure mode yields
// the same 401 so callers cannot tell which part failed.
func Authenticate(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored in the context.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
