package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/repository"
)

type NotificationKind string

const (
	NotificationOverdue     NotificationKind = "overdue"
	NotificationDueToday    NotificationKind = "due-today"
	NotificationDueTomorrow NotificationKind = "due-tomorrow"
	NotificationDueSoon     NotificationKind = "due-soon"
	NotificationUpcoming    NotificationKind = "upcoming"
)

type Urgency string

const (
	UrgencyUrgent Urgency = "urgent"
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

func (u Urgency) rank() int {
	switch u {
	case UrgencyUrgent:
		return 0
	case UrgencyHigh:
		return 1
	case UrgencyMedium:
		return 2
	default:
		return 3
	}
}

// Notification is a due-date reminder for one open task.
type Notification struct {
	Kind     NotificationKind
	Urgency  Urgency
	DaysLeft int
	Message  string
	Task     *models.Task
}

// NotificationService derives due-date reminders from the user's open tasks.
type NotificationService struct {
	taskRepo repository.TaskRepository
	loc      *time.Location
	now      func() time.Time
}

// NewNotificationService creates a NotificationService that counts calendar
// days in loc.
func NewNotificationService(taskRepo repository.TaskRepository, loc *time.Location) *NotificationService {
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationService{taskRepo: taskRepo, loc: loc, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

// ForUser returns reminders for open, unarchived tasks the principal created
// or is assigned to, most urgent first.
func (s *NotificationService) ForUser(ctx context.Context, principal *models.User) ([]Notification, error) {
	if principal == nil {
		return nil, apierrors.Unauthenticated(apierrors.ReasonUnauthenticated, "Authentication required")
	}

	today := startOfDay(s.now(), s.loc)
	horizon := today.AddDate(0, 0, constants.UpcomingDays+1)

	tasks, err := s.taskRepo.ListOpenForUser(ctx, principal.ID, horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to list open tasks: %w", err)
	}

	notifications := make([]Notification, 0, len(tasks))
	for i := range tasks {
		task := &tasks[i]
		if !task.Status.IsOpen() {
			continue
		}
		n, ok := classify(task, daysBetween(today, startOfDay(task.DueDate, s.loc)))
		if ok {
			notifications = append(notifications, n)
		}
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		ri, rj := notifications[i].Urgency.rank(), notifications[j].Urgency.rank()
		if ri != rj {
			return ri < rj
		}
		return notifications[i].DaysLeft < notifications[j].DaysLeft
	})
	return notifications, nil
}

func classify(task *models.Task, daysLeft int) (Notification, bool) {
	n := Notification{Task: task, DaysLeft: daysLeft}
	switch {
	case daysLeft < 0:
		n.Kind, n.Urgency = NotificationOverdue, UrgencyUrgent
		n.Message = fmt.Sprintf("%q is overdue by %s", task.Title, plural(-daysLeft, "day"))
	case daysLeft == 0:
		n.Kind, n.Urgency = NotificationDueToday, UrgencyHigh
		n.Message = fmt.Sprintf("%q is due today", task.Title)
	case daysLeft == 1:
		n.Kind, n.Urgency = NotificationDueTomorrow, UrgencyHigh
		n.Message = fmt.Sprintf("%q is due tomorrow", task.Title)
	case daysLeft <= constants.DueSoonDays:
		n.Kind, n.Urgency = NotificationDueSoon, UrgencyMedium
		n.Message = fmt.Sprintf("%q is due in %s", task.Title, plural(daysLeft, "day"))
	case daysLeft <= constants.UpcomingDays:
		n.Kind, n.Urgency = NotificationUpcoming, UrgencyLow
		n.Message = fmt.Sprintf("%q is due in %s", task.Title, plural(daysLeft, "day"))
	default:
		return Notification{}, false
	}
	return n, true
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from one midnight to another, ignoring DST shifts.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
