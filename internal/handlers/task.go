package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/dto"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/middleware"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/taskstate"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

type listTasksQuery struct {
	Status          string `form:"status" binding:"omitempty,taskstatus"`
	Priority        string `form:"priority" binding:"omitempty,taskpriority"`
	Search          string `form:"search"`
	AssignedTo      string `form:"assigned_to"`
	CreatedBy       string `form:"created_by"`
	IncludeArchived bool   `form:"include_archived"`
}

func (q listTasksQuery) input(params utils.PaginationParams) services.ListTasksInput {
	input := services.ListTasksInput{
		Search:          strings.TrimSpace(q.Search),
		IncludeArchived: q.IncludeArchived,
		Pagination:      params,
	}
	if q.Status != "" {
		status := models.TaskStatus(q.Status)
		input.Status = &status
	}
	if q.Priority != "" {
		priority := models.TaskPriority(q.Priority)
		input.Priority = &priority
	}
	if q.AssignedTo != "" {
		input.AssignedToID = &q.AssignedTo
	}
	if q.CreatedBy != "" {
		input.CreatedByID = &q.CreatedBy
	}
	return input
}

// ListTasks returns the tasks visible to the current user, newest first
func (h *TaskHandler) ListTasks(c *gin.Context) {
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

// GetTask returns a specific task by ID
// Task is already loaded and authorized by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	expanded, err := h.taskService.GetTask(c.Request.Context(), middleware.GetPrincipal(c), task)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*expanded))
}

type createTaskRequest struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Priority    models.TaskPriority      `json:"priority" binding:"omitempty,taskpriority"`
	DueDate     *time.Time               `json:"due_date"`
	AssignedTo  *string                  `json:"assigned_to"`
	Tags        []string                 `json:"tags"`
	Subtasks    []taskstate.SubtaskInput `json:"subtasks"`
}

// CreateTask creates a new task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	expanded, err := h.taskService.CreateTask(c.Request.Context(), middleware.GetPrincipal(c), services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		Priority:     req.Priority,
		AssignedToID: req.AssignedTo,
		Tags:         req.Tags,
		Subtasks:     req.Subtasks,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*expanded))
}

type updateTaskRequest struct {
	Title       *string                   `json:"title"`
	Description *string                   `json:"description"`
	Status      *models.TaskStatus        `json:"status" binding:"omitempty,taskstatus"`
	Priority    *models.TaskPriority      `json:"priority" binding:"omitempty,taskpriority"`
	DueDate     *time.Time                `json:"due_date"`
	AssignedTo  optionalString            `json:"assigned_to"`
	Tags        *[]string                 `json:"tags"`
	Subtasks    *[]taskstate.SubtaskInput `json:"subtasks"`
}

func (r updateTaskRequest) update() taskstate.Update {
	u := taskstate.Update{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		Tags:        r.Tags,
		Subtasks:    r.Subtasks,
	}
	if r.AssignedTo.Set {
		if r.AssignedTo.Value == nil || strings.TrimSpace(*r.AssignedTo.Value) == "" {
			u.ClearAssignee = true
		} else {
			u.AssignedToID = r.AssignedTo.Value
		}
	}
	return u
}

// UpdateTask applies a partial update; every present field is validated before anything is saved
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	update := req.update()
	if update.IsEmpty() {
		apierrors.BadRequest(c, "No fields to update")
		return
	}

	expanded, err := h.taskService.UpdateTask(c.Request.Context(), middleware.GetPrincipal(c), task, update)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*expanded))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), middleware.GetPrincipal(c), task); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// AddComment appends a comment by the current user
func (h *TaskHandler) AddComment(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	expanded, err := h.taskService.AddComment(c.Request.Context(), middleware.GetPrincipal(c), task, req.Text)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*expanded))
}

// ToggleArchive flips the archived flag
func (h *TaskHandler) ToggleArchive(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	expanded, err := h.taskService.ToggleArchive(c.Request.Context(), middleware.GetPrincipal(c), task)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*expanded))
}

// GenerateTasks drafts tasks from free text using AI. Nothing is stored.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	drafts, err := h.taskService.GenerateTasks(c.Request.Context(), req.Text)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GeneratedTasksResponse{Tasks: drafts})
}
