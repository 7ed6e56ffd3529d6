package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yukikurage/task-manager-api/internal/constants"
	"github.com/yukikurage/task-manager-api/internal/repository"
)

// SchedulerService wraps cron-based background jobs.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	if loc == nil {
		loc = time.UTC
	}
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleInterval registers a periodic job. The interval must be a whole
// number of seconds, the finest resolution cron supports.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval < time.Second || interval%time.Second != 0 {
		return 0, fmt.Errorf("interval must be a positive whole number of seconds, got %s", interval)
	}
	return s.cron.Schedule(cron.Every(interval), cron.FuncJob(job)), nil
}

// Entries reports how many jobs are registered.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// OverdueDigest summarizes open tasks past their due date per assignee.
type OverdueDigest struct {
	Total        int
	Unassigned   int
	ByAssigneeID map[string]int
}

// DigestService produces the periodic overdue-task digest.
type DigestService struct {
	taskRepo repository.TaskRepository
	now      func() time.Time
	logf     func(format string, args ...any)
}

func NewDigestService(taskRepo repository.TaskRepository) *DigestService {
	return &DigestService{taskRepo: taskRepo, now: time.Now, logf: log.Printf}
}

// Build counts overdue open tasks, archived ones included.
func (s *DigestService) Build(ctx context.Context) (*OverdueDigest, error) {
	tasks, err := s.taskRepo.ListOverdue(ctx, s.now(), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	digest := &OverdueDigest{Total: len(tasks), ByAssigneeID: make(map[string]int)}
	for _, t := range tasks {
		if t.AssignedToID == nil {
			digest.Unassigned++
			continue
		}
		digest.ByAssigneeID[*t.AssignedToID]++
	}
	return digest, nil
}

// Run builds the digest under a bounded context and logs it.
func (s *DigestService) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultJobTimeout)
	defer cancel()

	digest, err := s.Build(ctx)
	if err != nil {
		s.logf("overdue digest failed: %v", err)
		return
	}
	if digest.Total == 0 {
		return
	}

	s.logf("overdue digest: %d open tasks past due (%d unassigned)", digest.Total, digest.Unassigned)
	ids := make([]string, 0, len(digest.ByAssigneeID))
	for id := range digest.ByAssigneeID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.logf("overdue digest: assignee %s has %d overdue tasks", id, digest.ByAssigneeID[id])
	}
}
