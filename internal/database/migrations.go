package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

type compositeIndex struct {
	table   string
	name    string
	columns string
}

// Listing and dashboard queries filter on these column pairs.
var compositeIndexes = []compositeIndex{
	{"tasks", "idx_tasks_creator_archived", "created_by_id, is_archived"},
	{"tasks", "idx_tasks_assignee_archived", "assigned_to_id, is_archived"},
	{"tasks", "idx_tasks_status_due_date", "status, due_date"},
	{"task_comments", "idx_task_comments_task_created", "task_id, created_at"},
	{"users", "idx_users_active_role", "is_active, role"},
}

// AddIndexes creates the composite indexes that struct tags do not express.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}
