package dto

import (
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	IsActive  bool            `json:"is_active"`
	LastLogin *time.Time      `json:"last_login"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LoginResponse carries the user and a bearer token for API clients
type LoginResponse struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserDTO                `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// TaskStatsDTO counts a user's assigned tasks by status
type TaskStatsDTO struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
}

// UserDetailDTO is a user with their task statistics
type UserDetailDTO struct {
	User      UserDTO      `json:"user"`
	TaskStats TaskStatsDTO `json:"task_stats"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i := range users {
		items[i] = ToUserDTO(&users[i])
	}
	return items
}

// ToUserListResponse converts a page of users
func ToUserListResponse(users []models.User, params utils.PaginationParams, total int64) UserListResponse {
	return UserListResponse{
		Users:      ToUserDTOs(users),
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToUserDetailDTO converts a user with task statistics
func ToUserDetailDTO(detail *services.UserDetail) UserDetailDTO {
	return UserDetailDTO{
		User: ToUserDTO(detail.User),
		TaskStats: TaskStatsDTO{
			Total:      detail.Tasks.Total,
			Pending:    detail.Tasks.Pending,
			InProgress: detail.Tasks.InProgress,
			Completed:  detail.Tasks.Completed,
			Cancelled:  detail.Tasks.Cancelled,
		},
	}
}
