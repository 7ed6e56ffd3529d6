package middleware

import (
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/policy"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

// RequireAuth resolves the principal from the session cookie or, failing
// that, a bearer token. Deactivated accounts are refused.
func RequireAuth(users repository.UserRepository, tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := sessionUserID(c)
		if !ok {
			userID, ok = bearerUserID(c, tokens)
		}
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				apierrors.Unauthorized(c, "")
			} else {
				apierrors.Respond(c, err)
			}
			c.Abort()
			return
		}

		if !user.IsActive {
			apierrors.Respond(c, apierrors.Authorization(apierrors.ReasonAccountDisabled, "Account is deactivated"))
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

func sessionUserID(c *gin.Context) (string, bool) {
	id, ok := sessions.Default(c).Get(constants.ContextKeyUserID).(string)
	return id, ok && id != ""
}

func bearerUserID(c *gin.Context, tokens *utils.TokenManager) (string, bool) {
	if tokens == nil {
		return "", false
	}
	header := c.GetHeader(constants.AuthorizationHeader)
	if !strings.HasPrefix(header, constants.BearerTokenPrefix) {
		return "", false
	}

	userID, err := tokens.Parse(strings.TrimPrefix(header, constants.BearerTokenPrefix))
	if err != nil {
		return "", false
	}
	return userID, true
}

// RequireAdmin rejects principals without the admin role. It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Authorize(GetPrincipal(c), policy.CapAdmin, nil); err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated user from context
func GetPrincipal(c *gin.Context) *models.User {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}
