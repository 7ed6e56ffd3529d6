package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/repository"
)

// stubTaskRepo serves canned tasks; unimplemented methods panic.
type stubTaskRepo struct {
	repository.TaskRepository
	tasks     []models.Task
	err       error
	dueBefore time.Time
}

func (r *stubTaskRepo) ListOpenForUser(_ context.Context, _ string, dueBefore time.Time) ([]models.Task, error) {
	r.dueBefore = dueBefore
	return r.tasks, r.err
}

func (r *stubTaskRepo) ListOverdue(_ context.Context, _ time.Time, _ int) ([]models.Task, error) {
	return r.tasks, r.err
}

func dueTask(title string, due time.Time, status models.TaskStatus) models.Task {
	return models.Task{Title: title, DueDate: due, Status: status}
}

func TestNotifications_Buckets(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 1, 22, 0, 0, 0, loc)
	at := func(day, hour int) time.Time { return time.Date(2024, 6, day, hour, 0, 0, 0, loc) }

	repo := &stubTaskRepo{tasks: []models.Task{
		dueTask("upcoming", at(8, 9), models.TaskStatusPending),
		dueTask("soon", at(4, 9), models.TaskStatusInProgress),
		dueTask("tomorrow", at(2, 1), models.TaskStatusPending),
		dueTask("today early", at(1, 8), models.TaskStatusPending),
		dueTask("overdue", time.Date(2024, 5, 29, 23, 0, 0, 0, loc), models.TaskStatusPending),
		dueTask("done", at(1, 9), models.TaskStatusCompleted),
	}}
	service := NewNotificationService(repo, loc).WithClock(func() time.Time { return now })

	notifications, err := service.ForUser(context.Background(), &models.User{ID: "u1"})
	require.NoError(t, err)
	require.Len(t, notifications, 5)

	expected := []struct {
		title    string
		kind     NotificationKind
		urgency  Urgency
		daysLeft int
	}{
		{"overdue", NotificationOverdue, UrgencyUrgent, -3},
		{"today early", NotificationDueToday, UrgencyHigh, 0},
		{"tomorrow", NotificationDueTomorrow, UrgencyHigh, 1},
		{"soon", NotificationDueSoon, UrgencyMedium, 3},
		{"upcoming", NotificationUpcoming, UrgencyLow, 7},
	}
	for i, want := range expected {
		got := notifications[i]
		assert.Equal(t, want.title, got.Task.Title)
		assert.Equal(t, want.kind, got.Kind, want.title)
		assert.Equal(t, want.urgency, got.Urgency, want.title)
		assert.Equal(t, want.daysLeft, got.DaysLeft, want.title)
	}

	assert.Equal(t, `"overdue" is overdue by 3 days`, notifications[0].Message)
	assert.True(t, repo.dueBefore.Equal(time.Date(2024, 6, 9, 0, 0, 0, 0, loc)))
}

func TestNotifications_TimezoneShiftsDays(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-06-01 16:00 UTC is already June 2nd in Tokyo
	now := time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC)
	repo := &stubTaskRepo{tasks: []models.Task{
		dueTask("due june 2", time.Date(2024, 6, 2, 3, 0, 0, 0, time.UTC), models.TaskStatusPending),
	}}

	utc, err := NewNotificationService(repo, time.UTC).WithClock(func() time.Time { return now }).
		ForUser(context.Background(), &models.User{ID: "u1"})
	require.NoError(t, err)
	require.Len(t, utc, 1)
	assert.Equal(t, NotificationDueTomorrow, utc[0].Kind)

	jst, err := NewNotificationService(repo, tokyo).WithClock(func() time.Time { return now }).
		ForUser(context.Background(), &models.User{ID: "u1"})
	require.NoError(t, err)
	require.Len(t, jst, 1)
	assert.Equal(t, NotificationDueToday, jst[0].Kind)
}

func TestNotifications_Errors(t *testing.T) {
	service := NewNotificationService(&stubTaskRepo{err: errors.New("boom")}, nil)

	_, err := service.ForUser(context.Background(), nil)
	assert.Error(t, err)

	_, err = service.ForUser(context.Background(), &models.User{ID: "u1"})
	assert.ErrorContains(t, err, "boom")
}
