package constants

import "time"

// Session and context keys
const (
	SessionCookieName   = "task_session"
	ContextKeyUserID    = "user_id"
	ContextKeyUser      = "user"
	ContextKeyTask      = "task"
	BearerTokenPrefix   = "Bearer "
	AuthorizationHeader = "Authorization"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Field bounds
const (
	MinPasswordLength     = 6
	MinNameLength         = 2
	MaxNameLength         = 50
	MaxTaskTitleLength    = 100
	MaxTaskDescLength     = 500
	MaxSubtaskTitleLength = 100
	MaxCommentLength      = 500
)

// Dashboard and activity limits
const (
	RecentTasksLimit    = 5
	OverdueTasksLimit   = 10
	ActivityLimit       = 10
	MaxAIGeneratedTasks = 20
)

// Notification windows, in days
const (
	DueSoonDays  = 3
	UpcomingDays = 7
)

const DefaultJobTimeout = 30 * time.Second
