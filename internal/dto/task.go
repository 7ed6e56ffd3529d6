package dto

import (
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

// UserSummaryDTO is the short form of a user embedded in task responses
type UserSummaryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubtaskDTO represents a subtask in API responses
type SubtaskDTO struct {
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// CommentDTO represents a comment. User is null when the author no longer exists.
type CommentDTO struct {
	ID        string          `json:"id"`
	User      *UserSummaryDTO `json:"user"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	DueDate      time.Time           `json:"due_date"`
	AssignedToID *string             `json:"assigned_to_id"`
	AssignedTo   *UserSummaryDTO     `json:"assigned_to"`
	CreatedByID  string              `json:"created_by_id"`
	CreatedBy    *UserSummaryDTO     `json:"created_by"`
	Tags         []string            `json:"tags"`
	Subtasks     []SubtaskDTO        `json:"subtasks"`
	Comments     []CommentDTO        `json:"comments"`
	IsArchived   bool                `json:"is_archived"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// GeneratedTasksResponse wraps AI task drafts
type GeneratedTasksResponse struct {
	Tasks []services.GeneratedTask `json:"tasks"`
}

// ToUserSummaryDTO returns nil for a missing user
func ToUserSummaryDTO(user *models.User) *UserSummaryDTO {
	if user == nil {
		return nil
	}
	return &UserSummaryDTO{ID: user.ID, Name: user.Name, Email: user.Email}
}

// ToTaskDTO converts an expanded task. References missing from Users render as null.
func ToTaskDTO(expanded services.ExpandedTask) TaskDTO {
	task := expanded.Task
	lookup := func(id string) *UserSummaryDTO {
		return ToUserSummaryDTO(expanded.Users[id])
	}

	dto := TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       task.Status,
		Priority:     task.Priority,
		DueDate:      task.DueDate,
		AssignedToID: task.AssignedToID,
		CreatedByID:  task.CreatedByID,
		CreatedBy:    lookup(task.CreatedByID),
		Tags:         task.Tags,
		Subtasks:     make([]SubtaskDTO, len(task.Subtasks)),
		Comments:     make([]CommentDTO, len(task.Comments)),
		IsArchived:   task.IsArchived,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	if task.AssignedToID != nil {
		dto.AssignedTo = lookup(*task.AssignedToID)
	}

	for i, st := range task.Subtasks {
		dto.Subtasks[i] = SubtaskDTO{Title: st.Title, Completed: st.Completed, CompletedAt: st.CompletedAt}
	}
	for i, c := range task.Comments {
		dto.Comments[i] = CommentDTO{ID: c.ID, User: lookup(c.UserID), Text: c.Text, CreatedAt: c.CreatedAt}
	}

	return dto
}

// ToTaskDTOs converts a slice of expanded tasks
func ToTaskDTOs(tasks []services.ExpandedTask) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		items[i] = ToTaskDTO(t)
	}
	return items
}

// ToTaskListResponse converts a page of tasks
func ToTaskListResponse(tasks []services.ExpandedTask, params utils.PaginationParams, total int64) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks),
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
