package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-manager-api/internal/dto"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/testutil"
)

type AdminHandlerTestSuite struct {
	suite.Suite
	env     handlerEnv
	handler *AdminHandler
	admin   *models.User
	member  *models.User
}

func (suite *AdminHandlerTestSuite) SetupTest() {
	suite.env = setupHandlerEnv(suite.T())
	suite.handler = NewAdminHandler(suite.env.adminService, suite.env.taskService)

	suite.admin = testutil.CreateUser(suite.T(), suite.env.db, "admin@example.com", models.RoleAdmin)
	suite.member = testutil.CreateUser(suite.T(), suite.env.db, "member@example.com", models.RoleUser)
}

// routerFor mounts the admin routes without RequireAdmin so the service-level
// role check is what gets exercised.
func (suite *AdminHandlerTestSuite) routerFor(user *models.User) *gin.Engine {
	r := newEngine()
	admin := r.Group("/api/admin")
	admin.Use(asUser(user))
	{
		admin.GET("/dashboard", suite.handler.Dashboard)
		admin.GET("/stats", suite.handler.Stats)
		admin.GET("/activity", suite.handler.Activity)
		admin.GET("/users", suite.handler.ListUsers)
		admin.GET("/users/:id", suite.handler.GetUser)
		admin.PUT("/users/:id", suite.handler.UpdateUser)
		admin.PUT("/users/:id/role", suite.handler.ChangeRole)
		admin.PUT("/users/:id/status", suite.handler.SetStatus)
		admin.DELETE("/users/:id", suite.handler.DeleteUser)
		admin.GET("/tasks", suite.handler.ListTasks)
	}
	return r
}

func (suite *AdminHandlerTestSuite) TestNonAdminIsRejected() {
	w := doJSON(suite.T(), suite.routerFor(suite.member), http.MethodGet, "/api/admin/users", nil)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(apierrors.ReasonNotAdmin, decodeError(suite.T(), w).Reason)
}

func (suite *AdminHandlerTestSuite) TestListUsers() {
	w := doJSON(suite.T(), suite.routerFor(suite.admin), http.MethodGet, "/api/admin/users?role=user", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var response dto.UserListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().Len(response.Users, 1)
	suite.Equal(suite.member.ID, response.Users[0].ID)

	w = doJSON(suite.T(), suite.routerFor(suite.admin), http.MethodGet, "/api/admin/users?role=owner", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ReasonInvalidRole, decodeError(suite.T(), w).Reason)
}

func (suite *AdminHandlerTestSuite) TestGetUser_TaskStats() {
	task := testutil.CreateTask(suite.T(), suite.env.db, "Assigned", suite.admin.ID, testutil.StrPtr(suite.member.ID))
	suite.Require().NoError(suite.env.db.Model(task).Update("status", models.TaskStatusCompleted).Error)
	testutil.CreateTask(suite.T(), suite.env.db, "Second", suite.admin.ID, testutil.StrPtr(suite.member.ID))

	w := doJSON(suite.T(), suite.routerFor(suite.admin), http.MethodGet, "/api/admin/users/"+suite.member.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var detail dto.UserDetailDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &detail))
	suite.EqualValues(2, detail.TaskStats.Total)
	suite.EqualValues(1, detail.TaskStats.Completed)
	suite.EqualValues(1, detail.TaskStats.Pending)

	w = doJSON(suite.T(), suite.routerFor(suite.admin), http.MethodGet, "/api/admin/users/nobody", nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(apierrors.ReasonUserNotFound, decodeError(suite.T(), w).Reason)
}

func (suite *AdminHandlerTestSuite) TestChangeRole() {
	r := suite.routerFor(suite.admin)

	w := doJSON(suite.T(), r, http.MethodPut, "/api/admin/users/"+suite.member.ID+"/role", map[string]string{"role": "superuser"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ReasonInvalidRole, decodeError(suite.T(), w).Reason)

	w = doJSON(suite.T(), r, http.MethodPut, "/api/admin/users/"+suite.member.ID+"/role", map[string]string{"role": "admin"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var user dto.UserDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &user))
	suite.Equal(models.RoleAdmin, user.Role)
}

func (suite *AdminHandlerTestSuite) TestSetStatus() {
	r := suite.routerFor(suite.admin)

	w := doJSON(suite.T(), r, http.MethodPut, "/api/admin/users/"+suite.member.ID+"/status", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var user dto.UserDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &user))
	suite.False(user.IsActive)

	w = doJSON(suite.T(), r, http.MethodPut, "/api/admin/users/"+suite.member.ID+"/status", map[string]bool{"is_active": true})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &user))
	suite.True(user.IsActive)

	w = doJSON(suite.T(), r, http.MethodPut, "/api/admin/users/"+suite.admin.ID+"/status", map[string]bool{"is_active": false})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ReasonCannotDeactivateSelf, decodeError(suite.T(), w).Reason)
}

func (suite *AdminHandlerTestSuite) TestDeleteUser() {
	r := suite.routerFor(suite.admin)

	w := doJSON(suite.T(), r, http.MethodDelete, "/api/admin/users/"+suite.admin.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ReasonCannotDeleteSelf, decodeError(suite.T(), w).Reason)

	task := testutil.CreateTask(suite.T(), suite.env.db, "Blocking", suite.member.ID, nil)
	w = doJSON(suite.T(), r, http.MethodDelete, "/api/admin/users/"+suite.member.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ReasonUserHasTasks, decodeError(suite.T(), w).Reason)

	suite.Require().NoError(suite.env.db.Delete(task).Error)
	w = doJSON(suite.T(), r, http.MethodDelete, "/api/admin/users/"+suite.member.ID, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *AdminHandlerTestSuite) TestDashboard() {
	testutil.CreateTask(suite.T(), suite.env.db, "One", suite.member.ID, nil)
	overdue := testutil.CreateTask(suite.T(), suite.env.db, "Two", suite.member.ID, nil)
	suite.Require().NoError(suite.env.db.Model(overdue).Update("due_date", time.Now().Add(-48*time.Hour).UTC()).Error)

	w := doJSON(suite.T(), suite.routerFor(suite.admin), http.MethodGet, "/api/admin/dashboard", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var dashboard dto.DashboardDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &dashboard))
	suite.EqualValues(2, dashboard.Users.Total)
	suite.EqualValues(1, dashboard.Users.Admins)
	suite.EqualValues(2, dashboard.Tasks.Total)
	suite.EqualValues(2, dashboard.Tasks.ByStatus[models.TaskStatusPending])
	suite.EqualValues(0, dashboard.Tasks.ByStatus[models.TaskStatusCancelled])
	suite.Len(dashboard.RecentTasks, 2)
	suite.Require().Len(dashboard.OverdueTasks, 1)
	suite.Equal(overdue.ID, dashboard.OverdueTasks[0].ID)
}

func (suite *AdminHandlerTestSuite) TestListTasks_SeesEverything() {
	testutil.CreateTask(suite.T(), suite.env.db, "Member task", suite.member.ID, nil)

	w := doJSON(suite.T(), suite.routerFor(suite.admin), http.MethodGet, "/api/admin/tasks", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Len(response.Tasks, 1)
}

func TestAdminHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerTestSuite))
}

func TestNotificationHandler_List(t *testing.T) {
	env := setupHandlerEnv(t)
	handler := NewNotificationHandler(env.notifications)
	user := testutil.CreateUser(t, env.db, "reminded@example.com", models.RoleUser)
	task := testutil.CreateTask(t, env.db, "Soon", user.ID, nil)
	testutil.CreateTask(t, env.db, "Someone else's", testutil.CreateUser(t, env.db, "other@example.com", models.RoleUser).ID, nil)

	r := newEngine()
	r.GET("/api/notifications", asUser(user), handler.List)

	w := doJSON(t, r, http.MethodGet, "/api/notifications", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var response dto.NotificationListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Count != 1 || len(response.Notifications) != 1 {
		t.Fatalf("expected one notification, got %+v", response)
	}
	if response.Notifications[0].TaskID != task.ID {
		t.Errorf("notification for %s, want %s", response.Notifications[0].TaskID, task.ID)
	}
}
