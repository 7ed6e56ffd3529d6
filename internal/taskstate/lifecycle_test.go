package taskstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }
func strPtr(s string) *string        { return &s }

func TestNewTask_Defaults(t *testing.T) {
	m, _ := newMachine(june2024)

	task, err := m.NewTask(NewTaskInput{
		Title:       "  Plan sprint ",
		Description: "Pick stories",
		DueDate:     timePtr(june2024.Add(48 * time.Hour)),
		CreatedByID: "creator",
		Tags:        []string{"team"},
		Subtasks:    []SubtaskInput{{Title: "collect", Completed: boolPtr(true)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Plan sprint", task.Title)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, "creator", task.CreatedByID)
	assert.False(t, task.IsArchived)
	assert.Nil(t, task.AssignedToID)
	require.Len(t, task.Subtasks, 1)
	assert.Equal(t, june2024, *task.Subtasks[0].CompletedAt)
}

func TestNewTask_Validation(t *testing.T) {
	m, _ := newMachine(june2024)
	future := timePtr(june2024.Add(time.Hour))

	cases := []struct {
		name   string
		input  NewTaskInput
		reason apierrors.Reason
	}{
		{"missing title", NewTaskInput{Description: "d", DueDate: future}, apierrors.ReasonValidationFailed},
		{"missing description", NewTaskInput{Title: "t", DueDate: future}, apierrors.ReasonValidationFailed},
		{"missing due date", NewTaskInput{Title: "t", Description: "d"}, apierrors.ReasonValidationFailed},
		{"past due date", NewTaskInput{Title: "t", Description: "d", DueDate: timePtr(june2024.Add(-time.Second))}, apierrors.ReasonDueDateInPast},
		{"bad priority", NewTaskInput{Title: "t", Description: "d", DueDate: future, Priority: "asap"}, apierrors.ReasonInvalidPriority},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.NewTask(tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.reason, apierrors.ReasonOf(err))
		})
	}
}

func TestNewTask_BlankAssigneeIsNone(t *testing.T) {
	m, _ := newMachine(june2024)

	task, err := m.NewTask(NewTaskInput{
		Title:        "t",
		Description:  "d",
		DueDate:      timePtr(june2024.Add(time.Hour)),
		AssignedToID: strPtr("  "),
	})
	require.NoError(t, err)
	assert.Nil(t, task.AssignedToID)
}

func TestApply_AllOrNothing(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()
	status := models.TaskStatusCompleted
	title := "New title"

	err := m.Apply(task, Update{
		Title:   &title,
		Status:  &status,
		DueDate: timePtr(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)),
	})
	require.Error(t, err)
	assert.Equal(t, apierrors.ReasonDueDateInPast, apierrors.ReasonOf(err))
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, models.TaskStatusPending, task.Status)

	err = m.Apply(task, Update{
		Title:   &title,
		Status:  &status,
		DueDate: timePtr(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Equal(t, title, task.Title)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}

func TestApply_KeepsCreatorAndComments(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()
	_, err := m.AddComment(task, "u1", "first")
	require.NoError(t, err)

	require.NoError(t, m.Apply(task, Update{AssignedToID: strPtr("assignee")}))
	assert.Equal(t, "creator", task.CreatedByID)
	assert.Len(t, task.Comments, 1)
	require.NotNil(t, task.AssignedToID)
	assert.Equal(t, "assignee", *task.AssignedToID)

	require.NoError(t, m.Apply(task, Update{ClearAssignee: true}))
	assert.Nil(t, task.AssignedToID)
}

func TestApply_OverdueTaskUntouchedDueDate(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()
	desc := "still overdue but editable"

	require.NoError(t, m.Apply(task, Update{Description: &desc}))
	assert.Equal(t, desc, task.Description)
	assert.True(t, task.IsOverdue(june2024))
}

func TestUpdateIsEmpty(t *testing.T) {
	assert.True(t, Update{}.IsEmpty())
	assert.False(t, Update{ClearAssignee: true}.IsEmpty())
}
