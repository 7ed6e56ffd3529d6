package taskstate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newMachine(at time.Time) (*Machine, *fakeClock) {
	clock := &fakeClock{t: at}
	return New(WithClock(clock.Now)), clock
}

func boolPtr(b bool) *bool { return &b }

var june2024 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleTask() *models.Task {
	return &models.Task{
		ID:          "task-1",
		Title:       "Write report",
		Description: "Quarterly numbers",
		Status:      models.TaskStatusPending,
		Priority:    models.PriorityMedium,
		DueDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedByID: "creator",
	}
}

func TestSetStatus_AnyToAny(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()

	sequence := []models.TaskStatus{
		models.TaskStatusCancelled,
		models.TaskStatusPending,
		models.TaskStatusCompleted,
		models.TaskStatusInProgress,
		models.TaskStatusPending,
	}
	for _, s := range sequence {
		require.NoError(t, m.SetStatus(task, s))
		assert.Equal(t, s, task.Status)
	}
}

func TestSetStatus_InvalidLeavesTaskUnchanged(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()
	task.Status = models.TaskStatusInProgress

	err := m.SetStatus(task, "bogus")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apierrors.ErrValidation))
	assert.Equal(t, apierrors.ReasonInvalidStatus, apierrors.ReasonOf(err))
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
}

func TestSetPriority(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()

	require.NoError(t, m.SetPriority(task, models.PriorityUrgent))
	assert.Equal(t, models.PriorityUrgent, task.Priority)

	err := m.SetPriority(task, "critical")
	assert.Equal(t, apierrors.ReasonInvalidPriority, apierrors.ReasonOf(err))
	assert.Equal(t, models.PriorityUrgent, task.Priority)
}

func TestSetDueDate(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()
	original := task.DueDate

	err := m.SetDueDate(task, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC))
	require.Error(t, err)
	assert.Equal(t, apierrors.ReasonDueDateInPast, apierrors.ReasonOf(err))
	assert.Equal(t, original, task.DueDate)

	future := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.SetDueDate(task, future))
	assert.Equal(t, future, task.DueDate)
}

func TestSetDueDate_ComparesFullTimestamp(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()

	sameDayEarlier := june2024.Add(-time.Minute)
	err := m.SetDueDate(task, sameDayEarlier)
	assert.Equal(t, apierrors.ReasonDueDateInPast, apierrors.ReasonOf(err))

	assert.NoError(t, m.SetDueDate(task, june2024))
}

func TestSetSubtasks_CompletionStamping(t *testing.T) {
	m, clock := newMachine(june2024)
	task := sampleTask()

	require.NoError(t, m.SetSubtasks(task, []SubtaskInput{{Title: "draft"}, {Title: "review"}}))
	require.Len(t, task.Subtasks, 2)
	assert.False(t, task.Subtasks[0].Completed)
	assert.Nil(t, task.Subtasks[0].CompletedAt)

	clock.Advance(time.Hour)
	require.NoError(t, m.SetSubtasks(task, []SubtaskInput{
		{Title: "draft", Completed: boolPtr(true)},
		{Title: "review"},
	}))
	require.NotNil(t, task.Subtasks[0].CompletedAt)
	stamped := *task.Subtasks[0].CompletedAt
	assert.Equal(t, clock.Now(), stamped)
	assert.Nil(t, task.Subtasks[1].CompletedAt)

	clock.Advance(time.Hour)
	require.NoError(t, m.SetSubtasks(task, []SubtaskInput{
		{Title: "draft", Completed: boolPtr(true)},
		{Title: "review", Completed: boolPtr(false)},
	}))
	assert.Equal(t, stamped, *task.Subtasks[0].CompletedAt, "re-submitting a completed subtask keeps its timestamp")

	require.NoError(t, m.SetSubtasks(task, []SubtaskInput{
		{Title: "draft", Completed: boolPtr(false)},
		{Title: "review"},
	}))
	assert.False(t, task.Subtasks[0].Completed)
	assert.Nil(t, task.Subtasks[0].CompletedAt)
}

func TestSetSubtasks_MatchesByTitleWhenReordered(t *testing.T) {
	m, clock := newMachine(june2024)
	task := sampleTask()

	require.NoError(t, m.SetSubtasks(task, []SubtaskInput{
		{Title: "a", Completed: boolPtr(true)},
		{Title: "b"},
	}))
	stamped := *task.Subtasks[0].CompletedAt

	clock.Advance(24 * time.Hour)
	require.NoError(t, m.SetSubtasks(task, []SubtaskInput{
		{Title: "b"},
		{Title: "a", Completed: boolPtr(true)},
	}))
	assert.Equal(t, "a", task.Subtasks[1].Title)
	assert.Equal(t, stamped, *task.Subtasks[1].CompletedAt)
}

func TestSetSubtasks_InvalidTitleRejectsWholeList(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()
	require.NoError(t, m.SetSubtasks(task, []SubtaskInput{{Title: "keep"}}))

	err := m.SetSubtasks(task, []SubtaskInput{{Title: "ok"}, {Title: "   "}})
	require.Error(t, err)
	assert.Equal(t, apierrors.ReasonValidationFailed, apierrors.ReasonOf(err))
	require.Len(t, task.Subtasks, 1)
	assert.Equal(t, "keep", task.Subtasks[0].Title)

	err = m.SetSubtasks(task, []SubtaskInput{{Title: strings.Repeat("x", 101)}})
	assert.Error(t, err)
}

func TestAddComment(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := m.AddComment(task, "u1", text)
		require.Error(t, err)
		assert.Equal(t, apierrors.ReasonEmptyComment, apierrors.ReasonOf(err))
	}
	assert.Empty(t, task.Comments)

	before := m.Now()
	comment, err := m.AddComment(task, "u1", "  ok  ")
	require.NoError(t, err)
	require.Len(t, task.Comments, 1)
	assert.Equal(t, "ok", comment.Text)
	assert.Equal(t, "u1", comment.UserID)
	assert.Equal(t, task.ID, comment.TaskID)
	assert.NotEmpty(t, comment.ID)
	assert.False(t, comment.CreatedAt.Before(before))
}

func TestAddComment_TooLong(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()

	_, err := m.AddComment(task, "u1", strings.Repeat("é", 501))
	assert.Equal(t, apierrors.ReasonCommentTooLong, apierrors.ReasonOf(err))

	_, err = m.AddComment(task, "u1", strings.Repeat("é", 500))
	assert.NoError(t, err)
}

func TestToggleArchive(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()
	task.Status = models.TaskStatusInProgress

	assert.True(t, m.ToggleArchive(task))
	assert.True(t, task.IsArchived)
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	assert.False(t, m.ToggleArchive(task))
}

func TestSetTags(t *testing.T) {
	m, _ := newMachine(june2024)
	task := sampleTask()

	m.SetTags(task, []string{" work ", "", "urgent"})
	assert.Equal(t, []string{"work", "urgent"}, task.Tags)
}
