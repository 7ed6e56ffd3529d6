package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/taskstate"
	"github.com/yukikurage/task-manager-api/internal/testutil"
	"github.com/yukikurage/task-manager-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type handlerEnv struct {
	db            *gorm.DB
	users         repository.UserRepository
	tokens        *utils.TokenManager
	authService   *services.AuthService
	taskService   *services.TaskService
	adminService  *services.AdminService
	notifications *services.NotificationService
}

func setupHandlerEnv(t *testing.T) handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	tasks := repository.NewTaskRepository(db)
	taskService := services.NewTaskService(tasks, users, taskstate.New(), nil)

	return handlerEnv{
		db:            db,
		users:         users,
		tokens:        utils.NewTokenManager("test-secret", time.Hour),
		authService:   services.NewAuthService(users).WithHashCost(bcrypt.MinCost),
		taskService:   taskService,
		adminService:  services.NewAdminService(users, tasks, taskService),
		notifications: services.NewNotificationService(tasks, time.UTC),
	}
}

// newEngine returns a router with the cookie session store that the
// production server uses outside of Redis deployments.
func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	return r
}

// asUser authenticates every request as user.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewReader([]byte(raw))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr), w.Body.String())
	return apiErr
}

// errorFields lists the field names reported in a validation error's details.
func errorFields(t *testing.T, apiErr apierrors.APIError) []string {
	t.Helper()
	items, ok := apiErr.Details.([]any)
	require.True(t, ok, "details: %#v", apiErr.Details)

	fields := make([]string, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		require.True(t, ok)
		field, _ := entry["field"].(string)
		fields = append(fields, field)
	}
	return fields
}

func futureRFC3339(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}
