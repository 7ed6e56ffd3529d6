package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/policy"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

// AdminService implements the administrative surface. Every method requires
// an admin principal.
type AdminService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	tasks    *TaskService
	now      func() time.Time
}

// NewAdminService creates a new AdminService
func NewAdminService(userRepo repository.UserRepository, taskRepo repository.TaskRepository, tasks *TaskService) *AdminService {
	return &AdminService{
		userRepo: userRepo,
		taskRepo: taskRepo,
		tasks:    tasks,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for overdue calculations.
func (s *AdminService) WithClock(now func() time.Time) *AdminService {
	s.now = now
	return s
}

// ListUsersInput represents filters for listing users
type ListUsersInput struct {
	Role       *models.UserRole
	IsActive   *bool
	Search     string
	Pagination utils.PaginationParams
}

// TaskStats counts the tasks assigned to one user by status.
type TaskStats struct {
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
	Cancelled  int64
}

// UserDetail is a user together with their assigned-task statistics.
type UserDetail struct {
	User  *models.User
	Tasks TaskStats
}

// UserUpdate lists the fields an admin may change on any account.
type UserUpdate struct {
	Name     *string
	Email    *string
	Role     *models.UserRole
	IsActive *bool
}

// Dashboard is the overview shown on the admin landing page.
type Dashboard struct {
	TotalUsers   int64
	AdminUsers   int64
	RegularUsers int64
	TotalTasks   int64
	ByStatus     map[models.TaskStatus]int64
	ByPriority   map[models.TaskPriority]int64
	RecentTasks  []ExpandedTask
	OverdueTasks []ExpandedTask
}

// Stats holds the headline counters.
type Stats struct {
	TotalUsers     int64
	ActiveUsers    int64
	AdminUsers     int64
	TotalTasks     int64
	CompletedTasks int64
	PendingTasks   int64
	OverdueTasks   int64
}

// Activity lists the latest logins and the newest tasks.
type Activity struct {
	RecentLogins []models.User
	RecentTasks  []ExpandedTask
}

// ListUsers returns users matching input, newest first
func (s *AdminService) ListUsers(ctx context.Context, principal *models.User, input ListUsersInput) ([]models.User, int64, error) {
	if err := policy.Authorize(principal, policy.CapAdmin, nil); err != nil {
		return nil, 0, err
	}
	if input.Role != nil && !input.Role.IsValid() {
		return nil, 0, invalidRole()
	}

	users, total, err := s.userRepo.List(ctx, repository.UserFilter{
		Role:       input.Role,
		IsActive:   input.IsActive,
		Search:     input.Search,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetUser returns a user with statistics over the tasks assigned to them
func (s *AdminService) GetUser(ctx context.Context, principal *models.User, id string) (*UserDetail, error) {
	if err := policy.Authorize(principal, policy.CapAdmin, nil); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.taskRepo.CountByStatus(ctx, &user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count user tasks: %w", err)
	}

	stats := TaskStats{
		Pending:    counts[models.TaskStatusPending],
		InProgress: counts[models.TaskStatusInProgress],
		Completed:  counts[models.TaskStatusCompleted],
		Cancelled:  counts[models.TaskStatusCancelled],
	}
	stats.Total = sum(counts)

	return &UserDetail{User: user, Tasks: stats}, nil
}

// UpdateUser changes profile, role or status of any account. The active flag
// of the principal's own account cannot be changed.
func (s *AdminService) UpdateUser(ctx context.Context, principal *models.User, id string, update UserUpdate) (*models.User, error) {
	if err := policy.Authorize(principal, policy.CapAdmin, nil); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.IsActive != nil {
		if err := policy.CanDeactivateUser(principal, user).Err(); err != nil {
			return nil, err
		}
	}
	if update.Role != nil && !update.Role.IsValid() {
		return nil, invalidRole()
	}

	if update.Name != nil {
		name, err := validateName(*update.Name)
		if err != nil {
			return nil, err
		}
		user.Name = name
	}
	if update.Email != nil {
		email, err := validateEmail(*update.Email)
		if err != nil {
			return nil, err
		}
		if err := checkEmailFree(ctx, s.userRepo, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}

	return s.save(ctx, user)
}

// ChangeRole assigns role to the user with id
func (s *AdminService) ChangeRole(ctx context.Context, principal *models.User, id string, role models.UserRole) (*models.User, error) {
	if err := policy.CanReassignRole(principal).Err(); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, invalidRole()
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	return s.save(ctx, user)
}

// SetStatus activates or deactivates a user. A nil active toggles the current value.
func (s *AdminService) SetStatus(ctx context.Context, principal *models.User, id string, active *bool) (*models.User, error) {
	if err := policy.Authorize(principal, policy.CapAdmin, nil); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanDeactivateUser(principal, user).Err(); err != nil {
		return nil, err
	}

	if active == nil {
		user.IsActive = !user.IsActive
	} else {
		user.IsActive = *active
	}
	return s.save(ctx, user)
}

// DeleteUser removes a user that no task references
func (s *AdminService) DeleteUser(ctx context.Context, principal *models.User, id string) error {
	if err := policy.Authorize(principal, policy.CapAdmin, nil); err != nil {
		return err
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	decision, err := policy.CanDeleteUser(ctx, principal, user, s.taskRepo)
	if err != nil {
		return fmt.Errorf("failed to count user tasks: %w", err)
	}
	if err := decision.Err(); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return userNotFound()
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Dashboard aggregates user and task statistics
func (s *AdminService) Dashboard(ctx context.Context, principal *models.User) (*Dashboard, error) {
	if err := policy.Authorize(principal, policy.CapAdmin, nil); err != nil {
		return nil, err
	}

	roles, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	byStatus, err := s.taskRepo.CountByStatus(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	byPriority, err := s.taskRepo.CountByPriority(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by priority: %w", err)
	}

	recent, err := s.taskRepo.ListRecent(ctx, constants.RecentTasksLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent tasks: %w", err)
	}
	overdue, err := s.taskRepo.ListOverdue(ctx, s.now(), constants.OverdueTasksLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	recentExpanded, err := s.tasks.Expand(ctx, recent)
	if err != nil {
		return nil, err
	}
	overdueExpanded, err := s.tasks.Expand(ctx, overdue)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalUsers:   sum(roles),
		AdminUsers:   roles[models.RoleAdmin],
		RegularUsers: roles[models.RoleUser],
		TotalTasks:   sum(byStatus),
		ByStatus:     byStatus,
		ByPriority:   byPriority,
		RecentTasks:  recentExpanded,
		OverdueTasks: overdueExpanded,
	}, nil
}

// Stats returns the headline user and task counters
func (s *AdminService) Stats(ctx context.Context, principal *models.User) (*Stats, error) {
	if err := policy.Authorize(principal, policy.CapAdmin, nil); err != nil {
		return nil, err
	}

	roles, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	active, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}
	byStatus, err := s.taskRepo.CountByStatus(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	overdue, err := s.taskRepo.CountOverdue(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	return &Stats{
		TotalUsers:     sum(roles),
		ActiveUsers:    active,
		AdminUsers:     roles[models.RoleAdmin],
		TotalTasks:     sum(byStatus),
		CompletedTasks: byStatus[models.TaskStatusCompleted],
		PendingTasks:   byStatus[models.TaskStatusPending],
		OverdueTasks:   overdue,
	}, nil
}

// Activity returns the most recent logins and tasks
func (s *AdminService) Activity(ctx context.Context, principal *models.User) (*Activity, error) {
	if err := policy.Authorize(principal, policy.CapAdmin, nil); err != nil {
		return nil, err
	}

	logins, err := s.userRepo.ListRecentLogins(ctx, constants.ActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent logins: %w", err)
	}
	recent, err := s.taskRepo.ListRecent(ctx, constants.ActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent tasks: %w", err)
	}
	expanded, err := s.tasks.Expand(ctx, recent)
	if err != nil {
		return nil, err
	}

	return &Activity{RecentLogins: logins, RecentTasks: expanded}, nil
}

func (s *AdminService) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, userNotFound()
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *AdminService) save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, emailTaken()
		case errors.Is(err, repository.ErrNotFound):
			return nil, userNotFound()
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func invalidRole() error {
	return apierrors.Validation(apierrors.ReasonInvalidRole, "Role must be one of: user, admin")
}

func sum[K comparable](counts map[K]int64) int64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	return total
}
