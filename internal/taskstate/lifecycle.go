package taskstate

import (
	"strings"
	"time"

	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
)

// NewTaskInput carries the fields a creator supplies for a new task.
type NewTaskInput struct {
	Title        string
	Description  string
	DueDate      *time.Time
	Priority     models.TaskPriority
	AssignedToID *string
	CreatedByID  string
	Tags         []string
	Subtasks     []SubtaskInput
}

// NewTask validates input and builds a pending, unarchived task owned by
// input.CreatedByID. Priority defaults to medium.
func (m *Machine) NewTask(input NewTaskInput) (*models.Task, error) {
	task := &models.Task{
		Status:      models.TaskStatusPending,
		Priority:    models.PriorityMedium,
		CreatedByID: input.CreatedByID,
		Tags:        []string{},
		Subtasks:    []models.Subtask{},
		Comments:    []models.Comment{},
	}

	if err := m.SetTitle(task, input.Title); err != nil {
		return nil, err
	}
	if err := m.SetDescription(task, input.Description); err != nil {
		return nil, err
	}
	if input.DueDate == nil {
		return nil, apierrors.Validation(apierrors.ReasonValidationFailed, "Please provide a valid due date")
	}
	if err := m.SetDueDate(task, *input.DueDate); err != nil {
		return nil, err
	}
	if input.Priority != "" {
		if err := m.SetPriority(task, input.Priority); err != nil {
			return nil, err
		}
	}
	if err := m.SetSubtasks(task, input.Subtasks); err != nil {
		return nil, err
	}
	m.SetTags(task, input.Tags)
	task.AssignedToID = normalizeAssignee(input.AssignedToID)

	return task, nil
}

// Update lists the fields of a partial update. Nil pointers are left alone.
// ClearAssignee removes the assignee; Subtasks and Tags replace their
// sequences when non-nil.
type Update struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	DueDate       *time.Time
	AssignedToID  *string
	ClearAssignee bool
	Tags          *[]string
	Subtasks      *[]SubtaskInput
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Priority == nil &&
		u.DueDate == nil && u.AssignedToID == nil && !u.ClearAssignee && u.Tags == nil && u.Subtasks == nil
}

// Apply validates every field of u and commits them together. On error the
// task is untouched. The creator and the comment log are never changed here.
func (m *Machine) Apply(t *models.Task, u Update) error {
	next := t.Clone()

	if u.Title != nil {
		if err := m.SetTitle(next, *u.Title); err != nil {
			return err
		}
	}
	if u.Description != nil {
		if err := m.SetDescription(next, *u.Description); err != nil {
			return err
		}
	}
	if u.Status != nil {
		if err := m.SetStatus(next, *u.Status); err != nil {
			return err
		}
	}
	if u.Priority != nil {
		if err := m.SetPriority(next, *u.Priority); err != nil {
			return err
		}
	}
	if u.DueDate != nil {
		if err := m.SetDueDate(next, *u.DueDate); err != nil {
			return err
		}
	}
	if u.Subtasks != nil {
		if err := m.SetSubtasks(next, *u.Subtasks); err != nil {
			return err
		}
	}
	if u.Tags != nil {
		m.SetTags(next, *u.Tags)
	}
	if u.ClearAssignee {
		next.AssignedToID = nil
	} else if u.AssignedToID != nil {
		next.AssignedToID = normalizeAssignee(u.AssignedToID)
	}

	next.CreatedByID = t.CreatedByID
	next.Comments = t.Comments
	*t = *next
	return nil
}

func normalizeAssignee(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
