package dto

import (
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/services"
)

type UserCountsDTO struct {
	Total   int64 `json:"total"`
	Admins  int64 `json:"admins"`
	Regular int64 `json:"regular"`
}

type TaskCountsDTO struct {
	Total      int64                         `json:"total"`
	ByStatus   map[models.TaskStatus]int64   `json:"by_status"`
	ByPriority map[models.TaskPriority]int64 `json:"by_priority"`
}

// DashboardDTO is the admin landing page payload
type DashboardDTO struct {
	Users        UserCountsDTO `json:"users"`
	Tasks        TaskCountsDTO `json:"tasks"`
	RecentTasks  []TaskDTO     `json:"recent_tasks"`
	OverdueTasks []TaskDTO     `json:"overdue_tasks"`
}

type StatsDTO struct {
	TotalUsers     int64 `json:"total_users"`
	ActiveUsers    int64 `json:"active_users"`
	AdminUsers     int64 `json:"admin_users"`
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
	OverdueTasks   int64 `json:"overdue_tasks"`
}

type ActivityDTO struct {
	RecentLogins []UserDTO `json:"recent_logins"`
	RecentTasks  []TaskDTO `json:"recent_tasks"`
}

// ToDashboardDTO fills in zero counts for statuses and priorities with no tasks
func ToDashboardDTO(d *services.Dashboard) DashboardDTO {
	byStatus := make(map[models.TaskStatus]int64, len(models.TaskStatuses))
	for _, s := range models.TaskStatuses {
		byStatus[s] = d.ByStatus[s]
	}
	byPriority := make(map[models.TaskPriority]int64, len(models.TaskPriorities))
	for _, p := range models.TaskPriorities {
		byPriority[p] = d.ByPriority[p]
	}

	return DashboardDTO{
		Users: UserCountsDTO{
			Total:   d.TotalUsers,
			Admins:  d.AdminUsers,
			Regular: d.RegularUsers,
		},
		Tasks: TaskCountsDTO{
			Total:      d.TotalTasks,
			ByStatus:   byStatus,
			ByPriority: byPriority,
		},
		RecentTasks:  ToTaskDTOs(d.RecentTasks),
		OverdueTasks: ToTaskDTOs(d.OverdueTasks),
	}
}

func ToStatsDTO(s *services.Stats) StatsDTO {
	return StatsDTO{
		TotalUsers:     s.TotalUsers,
		ActiveUsers:    s.ActiveUsers,
		AdminUsers:     s.AdminUsers,
		TotalTasks:     s.TotalTasks,
		CompletedTasks: s.CompletedTasks,
		PendingTasks:   s.PendingTasks,
		OverdueTasks:   s.OverdueTasks,
	}
}

func ToActivityDTO(a *services.Activity) ActivityDTO {
	return ActivityDTO{
		RecentLogins: ToUserDTOs(a.RecentLogins),
		RecentTasks:  ToTaskDTOs(a.RecentTasks),
	}
}

// NotificationDTO is one due-date reminder
type NotificationDTO struct {
	Type     services.NotificationKind `json:"type"`
	Urgency  services.Urgency          `json:"urgency"`
	DaysLeft int                       `json:"days_left"`
	Message  string                    `json:"message"`
	TaskID   string                    `json:"task_id"`
	Title    string                    `json:"title"`
	Status   models.TaskStatus         `json:"status"`
	Priority models.TaskPriority       `json:"priority"`
	DueDate  time.Time                 `json:"due_date"`
}

// NotificationListResponse wraps the reminders with their count
type NotificationListResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
	Count         int               `json:"count"`
}

func ToNotificationListResponse(notifications []services.Notification) NotificationListResponse {
	items := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		items[i] = NotificationDTO{
			Type:     n.Kind,
			Urgency:  n.Urgency,
			DaysLeft: n.DaysLeft,
			Message:  n.Message,
			TaskID:   n.Task.ID,
			Title:    n.Task.Title,
			Status:   n.Task.Status,
			Priority: n.Task.Priority,
			DueDate:  n.Task.DueDate,
		}
	}
	return NotificationListResponse{Notifications: items, Count: len(items)}
}
