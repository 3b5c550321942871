package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// AddIndexes creates the composite indexes that struct tags do not cover.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Obligation generation skips a task when this triple already exists
		{"tasks", "idx_tasks_title_due_assignee", "title, due_date, assignee_id"},
		{"activity_logs", "idx_activity_logs_user_time", "user_id, logged_at"},
		{"file_attachments", "idx_file_attachments_task_uploaded", "task_id, uploaded_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
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
