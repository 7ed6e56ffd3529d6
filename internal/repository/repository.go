package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate is returned when a unique constraint (user email) is violated.
	ErrDuplicate = errors.New("repository: duplicate key")
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create stores a new task together with its initial comments
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID, comments included in creation order
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination, newest first
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update rewrites the editable fields. The creator and comment log are left alone.
	Update(ctx context.Context, task *models.Task) error

	// AppendComment adds one comment to the task's log without touching other fields
	AppendComment(ctx context.Context, taskID string, comment *models.Comment) error

	// SetArchived persists only the archived flag
	SetArchived(ctx context.Context, taskID string, archived bool) error

	// Delete removes a task and its comments
	Delete(ctx context.Context, id string) error

	// CountTasksReferencing counts tasks created by or assigned to userID
	CountTasksReferencing(ctx context.Context, userID string) (int64, error)

	// CountByStatus groups tasks by status, optionally for one assignee
	CountByStatus(ctx context.Context, assigneeID *string) (map[models.TaskStatus]int64, error)

	// CountByPriority groups all tasks by priority
	CountByPriority(ctx context.Context) (map[models.TaskPriority]int64, error)

	// CountOverdue counts open tasks due before now
	CountOverdue(ctx context.Context, now time.Time) (int64, error)

	// ListRecent returns the most recently created tasks
	ListRecent(ctx context.Context, limit int) ([]models.Task, error)

	// ListOverdue returns open tasks due before now, earliest first. A limit of 0 means all.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Task, error)

	// ListOpenForUser returns open, unarchived tasks the user created or is
	// assigned to that are due before the given instant, earliest first
	ListOpenForUser(ctx context.Context, userID string, dueBefore time.Time) ([]models.Task, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status          *models.TaskStatus
	Priority        *models.TaskPriority
	Search          string
	AssignedToID    *string
	CreatedByID     *string
	VisibleTo       *string // created by or assigned to this user
	IncludeArchived bool
	Pagination      utils.PaginationParams
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByIDs returns the users that exist among ids, keyed by ID
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// List retrieves users with filtering and pagination, newest first
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)

	// Update saves the profile, role and status fields
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user
	Delete(ctx context.Context, id string) error

	// UpdateLastLogin records a successful login
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// CountByRole groups users by role
	CountByRole(ctx context.Context) (map[models.UserRole]int64, error)

	// CountActive counts users that may log in
	CountActive(ctx context.Context) (int64, error)

	// ListRecentLogins returns users ordered by last login, most recent first
	ListRecentLogins(ctx context.Context, limit int) ([]models.User, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Role       *models.UserRole
	IsActive   *bool
	Search     string
	Pagination utils.PaginationParams
}
