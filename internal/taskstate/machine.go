// Package taskstate validates and applies changes to an in-memory task.
//
// The machine never persists anything. Each operation checks its input first
// and mutates the task only when every check passed, so a rejected call leaves
// the task exactly as it was.
package taskstate

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
)

// Machine applies task transitions against a clock.
type Machine struct {
	now func() time.Time
}

type Option func(*Machine)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

func New(opts ...Option) *Machine {
	m := &Machine{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the machine's current time.
func (m *Machine) Now() time.Time {
	return m.now()
}

// SubtaskInput is a subtask as submitted by a client. A nil Completed means false.
type SubtaskInput struct {
	Title     string `json:"title"`
	Completed *bool  `json:"completed"`
}

// SetStatus accepts any of the four statuses from any other status.
func (m *Machine) SetStatus(t *models.Task, status models.TaskStatus) error {
	if err := validateStatus(status); err != nil {
		return err
	}
	t.Status = status
	return nil
}

func (m *Machine) SetPriority(t *models.Task, priority models.TaskPriority) error {
	if err := validatePriority(priority); err != nil {
		return err
	}
	t.Priority = priority
	return nil
}

func (m *Machine) SetTitle(t *models.Task, title string) error {
	title, err := boundedText(title, constants.MaxTaskTitleLength, "Title")
	if err != nil {
		return err
	}
	t.Title = title
	return nil
}

func (m *Machine) SetDescription(t *models.Task, description string) error {
	description, err := boundedText(description, constants.MaxTaskDescLength, "Description")
	if err != nil {
		return err
	}
	t.Description = description
	return nil
}

// SetDueDate rejects any instant before now. Tasks that became overdue with
// the passage of time are never re-checked.
func (m *Machine) SetDueDate(t *models.Task, due time.Time) error {
	if err := m.validateDueDate(due); err != nil {
		return err
	}
	t.DueDate = due
	return nil
}

// SetTags trims every tag and drops the empty ones, keeping order.
func (m *Machine) SetTags(t *models.Task, tags []string) {
	t.Tags = normalizeTags(tags)
}

// SetSubtasks replaces the subtask list. CompletedAt is stamped when a subtask
// turns complete, kept while it stays complete and cleared when it reopens.
func (m *Machine) SetSubtasks(t *models.Task, inputs []SubtaskInput) error {
	subtasks, err := m.buildSubtasks(t.Subtasks, inputs)
	if err != nil {
		return err
	}
	t.Subtasks = subtasks
	return nil
}

// AddComment appends a comment to the log and returns it.
func (m *Machine) AddComment(t *models.Task, authorID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierrors.Validation(apierrors.ReasonEmptyComment, "Comment cannot be empty")
	}
	if utf8.RuneCountInString(text) > constants.MaxCommentLength {
		return nil, apierrors.Validation(apierrors.ReasonCommentTooLong,
			"Comment must be between 1 and %d characters", constants.MaxCommentLength)
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		TaskID:    t.ID,
		UserID:    authorID,
		Text:      text,
		CreatedAt: m.now(),
	}
	t.Comments = append(t.Comments, comment)
	return &t.Comments[len(t.Comments)-1], nil
}

// ToggleArchive flips the archived flag and returns its new value.
func (m *Machine) ToggleArchive(t *models.Task) bool {
	t.IsArchived = !t.IsArchived
	return t.IsArchived
}

func (m *Machine) buildSubtasks(previous []models.Subtask, inputs []SubtaskInput) ([]models.Subtask, error) {
	result := make([]models.Subtask, 0, len(inputs))
	used := make([]bool, len(previous))

	for i, in := range inputs {
		title, err := boundedText(in.Title, constants.MaxSubtaskTitleLength, "Subtask title")
		if err != nil {
			return nil, err
		}
		completed := in.Completed != nil && *in.Completed

		prior := matchSubtask(previous, used, i, title)
		st := models.Subtask{Title: title, Completed: completed}
		if completed {
			if prior != nil && prior.Completed && prior.CompletedAt != nil {
				at := *prior.CompletedAt
				st.CompletedAt = &at
			} else {
				now := m.now()
				st.CompletedAt = &now
			}
		}
		result = append(result, st)
	}

	return result, nil
}

// matchSubtask pairs input i with its previous version: the same position when
// the title is unchanged, else the first unused subtask with that title.
func matchSubtask(previous []models.Subtask, used []bool, i int, title string) *models.Subtask {
	if i < len(previous) && !used[i] && previous[i].Title == title {
		used[i] = true
		return &previous[i]
	}
	for j := range previous {
		if !used[j] && previous[j].Title == title {
			used[j] = true
			return &previous[j]
		}
	}
	return nil
}

func (m *Machine) validateDueDate(due time.Time) error {
	if due.IsZero() {
		return apierrors.Validation(apierrors.ReasonValidationFailed, "Please provide a valid due date")
	}
	if due.Before(m.now()) {
		return apierrors.Validation(apierrors.ReasonDueDateInPast, "Due date cannot be in the past")
	}
	return nil
}

func validateStatus(status models.TaskStatus) error {
	if !status.IsValid() {
		return apierrors.Validation(apierrors.ReasonInvalidStatus,
			"Status must be pending, in-progress, completed, or cancelled")
	}
	return nil
}

func validatePriority(priority models.TaskPriority) error {
	if !priority.IsValid() {
		return apierrors.Validation(apierrors.ReasonInvalidPriority,
			"Priority must be low, medium, high, or urgent")
	}
	return nil
}

func boundedText(value string, max int, field string) (string, error) {
	value = strings.TrimSpace(value)
	n := utf8.RuneCountInString(value)
	if n < 1 || n > max {
		return "", apierrors.Validation(apierrors.ReasonValidationFailed,
			"%s must be between 1 and %d characters", field, max)
	}
	return value, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
