package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/dto"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/middleware"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

// AdminHandler serves the /api/admin routes. RequireAdmin guards the group,
// and the service checks the role again.
type AdminHandler struct {
	adminService *services.AdminService
	taskService  *services.TaskService
}

func NewAdminHandler(adminService *services.AdminService, taskService *services.TaskService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		taskService:  taskService,
	}
}

// Dashboard returns user and task statistics with recent and overdue tasks
func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.adminService.Dashboard(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDashboardDTO(dashboard))
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToStatsDTO(stats))
}

func (h *AdminHandler) Activity(c *gin.Context) {
	activity, err := h.adminService.Activity(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToActivityDTO(activity))
}

type listUsersQuery struct {
	Role     string `form:"role" binding:"omitempty,userrole"`
	IsActive *bool  `form:"is_active"`
	Search   string `form:"search"`
}

// ListUsers returns users filtered by role, status and search text
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query listUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListUsersInput{
		IsActive:   query.IsActive,
		Search:     strings.TrimSpace(query.Search),
		Pagination: params,
	}
	if query.Role != "" {
		role := models.UserRole(query.Role)
		input.Role = &role
	}

	users, total, err := h.adminService.ListUsers(c.Request.Context(), middleware.GetPrincipal(c), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, params, total))
}

// GetUser returns a user with statistics about the tasks assigned to them
func (h *AdminHandler) GetUser(c *gin.Context) {
	detail, err := h.adminService.GetUser(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDetailDTO(detail))
}

// UpdateUser changes any of name, email, role and active flag
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req struct {
		Name     *string          `json:"name"`
		Email    *string          `json:"email" binding:"omitempty,email"`
		Role     *models.UserRole `json:"role" binding:"omitempty,userrole"`
		IsActive *bool            `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"), services.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(user))
}

// ChangeRole sets a user's role
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	var req struct {
		Role models.UserRole `json:"role" binding:"required,userrole"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.adminService.ChangeRole(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"), req.Role)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(user))
}

// SetStatus activates or deactivates a user. An empty body toggles the flag.
func (h *AdminHandler) SetStatus(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	user, err := h.adminService.SetStatus(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"), req.IsActive)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(user))
}

// DeleteUser removes a user that no task references
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.adminService.DeleteUser(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ListTasks returns every task, with the same filters as the regular listing
func (h *AdminHandler) ListTasks(c *gin.Context) {
	var query listTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), middleware.GetPrincipal(c), query.input(params))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}
