package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/policy"
	"github.com/yukikurage/task-manager-api/internal/services"
)

// RequireTaskAccess loads the task named by the :id parameter and checks that
// the principal holds capability on it. A missing task yields 404 before any
// permission check.
func RequireTaskAccess(tasks *services.TaskService, capability policy.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := tasks.LoadTask(c.Request.Context(), GetPrincipal(c), c.Param("id"), capability)
		if err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}
