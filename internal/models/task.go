package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// IsOpen reports whether work on the task is still expected.
func (s TaskStatus) IsOpen() bool {
	return s != TaskStatusCompleted && s != TaskStatusCancelled
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// TaskPriorities lists every priority from lowest to highest.
var TaskPriorities = []TaskPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

type Task struct {
	ID           string       `gorm:"type:varchar(36);primarykey" bson:"_id" json:"id"`
	Title        string       `gorm:"type:varchar(100);not null" bson:"title" json:"title"`
	Description  string       `gorm:"type:varchar(500);not null" bson:"description" json:"description"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;index" bson:"status" json:"status"`
	Priority     TaskPriority `gorm:"type:varchar(20);not null;index" bson:"priority" json:"priority"`
	DueDate      time.Time    `gorm:"not null;index" bson:"due_date" json:"due_date"`
	AssignedToID *string      `gorm:"type:varchar(36);index" bson:"assigned_to,omitempty" json:"assigned_to_id"`
	CreatedByID  string       `gorm:"type:varchar(36);not null;index" bson:"created_by" json:"created_by_id"`
	Tags         []string     `gorm:"serializer:json;type:text" bson:"tags" json:"tags"`
	Subtasks     []Subtask    `gorm:"serializer:json;type:text" bson:"subtasks" json:"subtasks"`
	IsArchived   bool         `gorm:"not null;index" bson:"is_archived" json:"is_archived"`
	CreatedAt    time.Time    `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `bson:"updated_at" json:"updated_at"`

	// Append-only; stored in its own table so an append never rewrites the task row.
	Comments []Comment `gorm:"foreignKey:TaskID" bson:"comments" json:"comments"`
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

// IsOverdue reports whether an open task is past its due date at now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status.IsOpen() && t.DueDate.Before(now)
}

// Clone returns a deep copy of the task's slices so mutations of the copy
// never leak into the original.
func (t *Task) Clone() *Task {
	c := *t
	if t.AssignedToID != nil {
		id := *t.AssignedToID
		c.AssignedToID = &id
	}
	c.Tags = append([]string(nil), t.Tags...)
	c.Subtasks = make([]Subtask, len(t.Subtasks))
	for i, st := range t.Subtasks {
		c.Subtasks[i] = st
		if st.CompletedAt != nil {
			at := *st.CompletedAt
			c.Subtasks[i].CompletedAt = &at
		}
	}
	c.Comments = append([]Comment(nil), t.Comments...)
	return &c
}

// BeforeCreate assigns an identifier when the caller has not.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type Subtask struct {
	Title       string     `bson:"title" json:"title"`
	Completed   bool       `bson:"completed" json:"completed"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at"`
}

// Comment is one entry of a task's comment log. UserID is a weak reference:
// the author may since have been deleted.
type Comment struct {
	ID        string    `gorm:"type:varchar(36);primarykey" bson:"id" json:"id"`
	TaskID    string    `gorm:"type:varchar(36);not null;index" bson:"-" json:"-"`
	UserID    string    `gorm:"type:varchar(36);not null;index" bson:"user_id" json:"user_id"`
	Text      string    `gorm:"type:varchar(500);not null" bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (Comment) TableName() string {
	return "task_comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
