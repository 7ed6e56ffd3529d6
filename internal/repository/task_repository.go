package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-manager-api/internal/database"
	"github.com/yukikurage/task-manager-api/internal/models"
	"gorm.io/gorm"
)

// closedStatuses are excluded from overdue and notification queries.
var closedStatuses = []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCancelled}

// updatableTaskFields never include created_by_id or the comment log.
var updatableTaskFields = []string{
	"Title", "Description", "Status", "Priority", "DueDate",
	"AssignedToID", "Tags", "Subtasks", "UpdatedAt",
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func orderedComments(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return translateGormError("create task", err)
	}
	return nil
}

// FindByID finds a task by ID with its comments
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Preload("Comments", orderedComments).
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, translateGormError("find task", err)
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.CreatedByID != nil {
		query = query.Where("created_by_id = ?", *filter.CreatedByID)
	}
	if filter.VisibleTo != nil {
		query = query.Where("(created_by_id = ? OR assigned_to_id = ?)", *filter.VisibleTo, *filter.VisibleTo)
	}
	if !filter.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateGormError("count tasks", err)
	}

	var tasks []models.Task
	err := query.
		Scopes(database.NewestFirst, database.Paginate(filter.Pagination)).
		Preload("Comments", orderedComments).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, translateGormError("list tasks", err)
	}

	return tasks, total, nil
}

// Update updates the editable fields of a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).
		Model(task).
		Select(updatableTaskFields).
		Updates(task)
	if result.Error != nil {
		return translateGormError("update task", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendComment inserts one comment row and bumps the task's updated_at
func (r *GormTaskRepository) AppendComment(ctx context.Context, taskID string, comment *models.Comment) error {
	comment.TaskID = taskID

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).Where("id = ?", taskID).Update("updated_at", comment.CreatedAt)
		if result.Error != nil {
			return translateGormError("touch task", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Create(comment).Error; err != nil {
			return translateGormError("append comment", err)
		}
		return nil
	})
}

// SetArchived updates only the archived flag
func (r *GormTaskRepository) SetArchived(ctx context.Context, taskID string, archived bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", taskID).
		Update("is_archived", archived)
	if result.Error != nil {
		return translateGormError("archive task", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task and its comments
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return translateGormError("delete comments", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.Task{})
		if result.Error != nil {
			return translateGormError("delete task", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CountTasksReferencing counts tasks created by or assigned to userID
func (r *GormTaskRepository) CountTasksReferencing(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("created_by_id = ? OR assigned_to_id = ?", userID, userID).
		Count(&count).Error
	if err != nil {
		return 0, translateGormError("count referencing tasks", err)
	}
	return count, nil
}

// CountByStatus groups tasks by status
func (r *GormTaskRepository) CountByStatus(ctx context.Context, assigneeID *string) (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}

	query := r.db.WithContext(ctx).Model(&models.Task{})
	if assigneeID != nil {
		query = query.Where("assigned_to_id = ?", *assigneeID)
	}
	if err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, translateGormError("count tasks by status", err)
	}

	counts := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountByPriority groups tasks by priority
func (r *GormTaskRepository) CountByPriority(ctx context.Context) (map[models.TaskPriority]int64, error) {
	var rows []struct {
		Priority models.TaskPriority
		Count    int64
	}

	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("priority, COUNT(*) AS count").
		Group("priority").
		Scan(&rows).Error
	if err != nil {
		return nil, translateGormError("count tasks by priority", err)
	}

	counts := make(map[models.TaskPriority]int64, len(rows))
	for _, row := range rows {
		counts[row.Priority] = row.Count
	}
	return counts, nil
}

// CountOverdue counts open tasks due before now
func (r *GormTaskRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("due_date < ? AND status NOT IN ?", now, closedStatuses).
		Count(&count).Error
	if err != nil {
		return 0, translateGormError("count overdue tasks", err)
	}
	return count, nil
}

// ListRecent returns the newest tasks
func (r *GormTaskRepository) ListRecent(ctx context.Context, limit int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Scopes(database.NewestFirst).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, translateGormError("list recent tasks", err)
	}
	return tasks, nil
}

// ListOverdue returns open tasks due before now
func (r *GormTaskRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Task, error) {
	query := r.db.WithContext(ctx).
		Where("due_date < ? AND status NOT IN ?", now, closedStatuses).
		Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, translateGormError("list overdue tasks", err)
	}
	return tasks, nil
}

// ListOpenForUser returns the user's open tasks due before dueBefore
func (r *GormTaskRepository) ListOpenForUser(ctx context.Context, userID string, dueBefore time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("(created_by_id = ? OR assigned_to_id = ?)", userID, userID).
		Where("is_archived = ? AND status NOT IN ?", false, closedStatuses).
		Where("due_date < ?", dueBefore).
		Order("due_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, translateGormError("list open tasks", err)
	}
	return tasks, nil
}

// translateGormError maps GORM sentinels onto the repository's own.
func translateGormError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
