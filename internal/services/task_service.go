package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/policy"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/taskstate"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

// ExpandedTask is a task together with the referenced users that still exist.
// Creator, assignee or comment authors missing from Users render as null.
type ExpandedTask struct {
	Task  *models.Task
	Users map[string]*models.User
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	machine   *taskstate.Machine
	aiService *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, machine *taskstate.Machine, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		machine:   machine,
		aiService: aiService,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status          *models.TaskStatus
	Priority        *models.TaskPriority
	Search          string
	AssignedToID    *string
	CreatedByID     *string
	IncludeArchived bool
	Pagination      utils.PaginationParams
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  string
	DueDate      *time.Time
	Priority     models.TaskPriority
	AssignedToID *string
	Tags         []string
	Subtasks     []taskstate.SubtaskInput
}

// ListTasks returns the tasks visible to principal. Admins see every task;
// everyone else sees the tasks they created or are assigned to, and the
// remaining filters only narrow that set.
func (s *TaskService) ListTasks(ctx context.Context, principal *models.User, input ListTasksInput) ([]ExpandedTask, int64, error) {
	if principal == nil {
		return nil, 0, apierrors.Unauthenticated(apierrors.ReasonUnauthenticated, "Authentication required")
	}

	filter := repository.TaskFilter{
		Status:          input.Status,
		Priority:        input.Priority,
		Search:          input.Search,
		AssignedToID:    input.AssignedToID,
		CreatedByID:     input.CreatedByID,
		IncludeArchived: input.IncludeArchived,
		Pagination:      input.Pagination,
	}
	if !principal.IsAdmin() {
		filter.VisibleTo = &principal.ID
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	expanded, err := s.Expand(ctx, tasks)
	if err != nil {
		return nil, 0, err
	}
	return expanded, total, nil
}

// LoadTask fetches a task and checks that principal holds capability on it.
// A missing task is reported before a denied one.
func (s *TaskService) LoadTask(ctx context.Context, principal *models.User, taskID string, capability policy.Capability) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierrors.NotFoundError(apierrors.ReasonTaskNotFound, "Task not found")
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := policy.Authorize(principal, capability, task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask returns a task with its referenced users
func (s *TaskService) GetTask(ctx context.Context, principal *models.User, task *models.Task) (*ExpandedTask, error) {
	if err := policy.Authorize(principal, policy.CapRead, task); err != nil {
		return nil, err
	}
	return s.expandOne(ctx, task)
}

// CreateTask validates input and stores a new task owned by principal
func (s *TaskService) CreateTask(ctx context.Context, principal *models.User, input CreateTaskInput) (*ExpandedTask, error) {
	if principal == nil {
		return nil, apierrors.Unauthenticated(apierrors.ReasonUnauthenticated, "Authentication required")
	}

	task, err := s.machine.NewTask(taskstate.NewTaskInput{
		Title:        input.Title,
		Description:  input.Description,
		DueDate:      input.DueDate,
		Priority:     input.Priority,
		AssignedToID: input.AssignedToID,
		CreatedByID:  principal.ID,
		Tags:         input.Tags,
		Subtasks:     input.Subtasks,
	})
	if err != nil {
		return nil, err
	}

	if err := s.ensureAssigneeExists(ctx, task.AssignedToID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.expandOne(ctx, task)
}

// UpdateTask applies a partial update. Every field is validated before anything is stored.
func (s *TaskService) UpdateTask(ctx context.Context, principal *models.User, task *models.Task, update taskstate.Update) (*ExpandedTask, error) {
	if err := policy.Authorize(principal, policy.CapModify, task); err != nil {
		return nil, err
	}

	if !update.ClearAssignee {
		if err := s.ensureAssigneeExists(ctx, update.AssignedToID); err != nil {
			return nil, err
		}
	}

	if err := s.machine.Apply(task, update); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, s.storeError("update task", err)
	}

	return s.reload(ctx, task.ID)
}

// DeleteTask removes a task; only its creator or an admin may do so
func (s *TaskService) DeleteTask(ctx context.Context, principal *models.User, task *models.Task) error {
	if err := policy.Authorize(principal, policy.CapDelete, task); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return s.storeError("delete task", err)
	}
	return nil
}

// AddComment appends a comment authored by principal
func (s *TaskService) AddComment(ctx context.Context, principal *models.User, task *models.Task, text string) (*ExpandedTask, error) {
	if err := policy.Authorize(principal, policy.CapModify, task); err != nil {
		return nil, err
	}

	comment, err := s.machine.AddComment(task, principal.ID, text)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.AppendComment(ctx, task.ID, comment); err != nil {
		return nil, s.storeError("append comment", err)
	}

	return s.reload(ctx, task.ID)
}

// ToggleArchive flips the archived flag; only the creator or an admin may do so
func (s *TaskService) ToggleArchive(ctx context.Context, principal *models.User, task *models.Task) (*ExpandedTask, error) {
	if err := policy.Authorize(principal, policy.CapArchive, task); err != nil {
		return nil, err
	}

	archived := s.machine.ToggleArchive(task)
	if err := s.taskRepo.SetArchived(ctx, task.ID, archived); err != nil {
		return nil, s.storeError("archive task", err)
	}

	return s.reload(ctx, task.ID)
}

// GenerateTasks uses AI to draft tasks from free text. Nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, apierrors.Unavailable(apierrors.ReasonAIUnavailable, "AI service is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apierrors.Validation(apierrors.ReasonValidationFailed, "Text is required")
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	now := s.machine.Now()
	drafts := make([]GeneratedTask, 0, len(aiTasks))
	for _, draft := range aiTasks {
		draft.Title = strings.TrimSpace(draft.Title)
		if draft.Title == "" {
			continue
		}
		if draft.DueDate != nil && draft.DueDate.Before(now) {
			draft.DueDate = nil
		}
		if !draft.Priority.IsValid() {
			draft.Priority = models.PriorityMedium
		}
		drafts = append(drafts, draft)
	}

	return drafts, nil
}

// Expand loads every user referenced by tasks with a single lookup.
func (s *TaskService) Expand(ctx context.Context, tasks []models.Task) ([]ExpandedTask, error) {
	ptrs := make([]*models.Task, len(tasks))
	for i := range tasks {
		ptrs[i] = &tasks[i]
	}

	users, err := s.userRepo.FindByIDs(ctx, referencedUserIDs(ptrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to load task users: %w", err)
	}

	expanded := make([]ExpandedTask, len(ptrs))
	for i, t := range ptrs {
		expanded[i] = ExpandedTask{Task: t, Users: users}
	}
	return expanded, nil
}

func (s *TaskService) expandOne(ctx context.Context, task *models.Task) (*ExpandedTask, error) {
	users, err := s.userRepo.FindByIDs(ctx, referencedUserIDs(task))
	if err != nil {
		return nil, fmt.Errorf("failed to load task users: %w", err)
	}
	return &ExpandedTask{Task: task, Users: users}, nil
}

func (s *TaskService) reload(ctx context.Context, taskID string) (*ExpandedTask, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, s.storeError("reload task", err)
	}
	return s.expandOne(ctx, task)
}

func (s *TaskService) ensureAssigneeExists(ctx context.Context, assigneeID *string) error {
	if assigneeID == nil || strings.TrimSpace(*assigneeID) == "" {
		return nil
	}

	if _, err := s.userRepo.FindByID(ctx, strings.TrimSpace(*assigneeID)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierrors.Validation(apierrors.ReasonAssigneeNotFound, "Assigned user not found")
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	return nil
}

// storeError reports a task deleted between load and write as not found.
func (s *TaskService) storeError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apierrors.NotFoundError(apierrors.ReasonTaskNotFound, "Task not found")
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// referencedUserIDs returns the distinct creator, assignee and comment author ids.
func referencedUserIDs(tasks ...*models.Task) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, t := range tasks {
		add(t.CreatedByID)
		if t.AssignedToID != nil {
			add(*t.AssignedToID)
		}
		for _, c := range t.Comments {
			add(c.UserID)
		}
	}
	return ids
}
