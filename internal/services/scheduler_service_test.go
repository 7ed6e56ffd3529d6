package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager-api/internal/models"
)

func TestScheduleInterval(t *testing.T) {
	scheduler := NewSchedulerService(time.UTC)

	for _, bad := range []time.Duration{0, -time.Minute, 500 * time.Millisecond, 1500 * time.Millisecond} {
		_, err := scheduler.ScheduleInterval(bad, func() {})
		assert.Error(t, err, bad.String())
	}
	assert.Zero(t, scheduler.Entries())

	_, err := scheduler.ScheduleInterval(time.Hour, func() {})
	require.NoError(t, err)
	_, err = scheduler.ScheduleInterval(90*time.Second, func() {})
	require.NoError(t, err)
	assert.Equal(t, 2, scheduler.Entries())

	scheduler.Start()
	scheduler.Stop()
}

func TestDigest_GroupsByAssignee(t *testing.T) {
	alice, bob := "alice", "bob"
	repo := &stubTaskRepo{tasks: []models.Task{
		{Title: "a1", AssignedToID: &alice},
		{Title: "a2", AssignedToID: &alice},
		{Title: "b1", AssignedToID: &bob},
		{Title: "nobody"},
	}}

	var lines []string
	digest := NewDigestService(repo)
	digest.logf = func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }

	got, err := digest.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 1, got.Unassigned)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, got.ByAssigneeID)

	digest.Run()
	assert.Equal(t, []string{
		"overdue digest: 4 open tasks past due (1 unassigned)",
		"overdue digest: assignee alice has 2 overdue tasks",
		"overdue digest: assignee bob has 1 overdue tasks",
	}, lines)
}

func TestDigest_LogsFailure(t *testing.T) {
	var lines []string
	digest := NewDigestService(&stubTaskRepo{err: errors.New("db down")})
	digest.logf = func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }

	digest.Run()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "db down")
}
