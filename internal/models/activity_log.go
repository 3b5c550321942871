package models

import "time"

type ActivityKind string

const (
	ActivityCreateTask         ActivityKind = "create_task"
	ActivityEditTask           ActivityKind = "edit_task"
	ActivityUpdateTaskStatus   ActivityKind = "update_task_status"
	ActivityDeleteTask         ActivityKind = "delete_task"
	ActivityUpload             ActivityKind = "upload"
	ActivityDownload           ActivityKind = "download"
	ActivityDeleteFile         ActivityKind = "delete_file"
	ActivityGenerateMonth      ActivityKind = "generate_obligations_month"
	ActivityGenerateYear       ActivityKind = "generate_obligations_year"
	ActivityGenerateNextMonth  ActivityKind = "generate_obligations_next_month"
	ActivityRefreshObligations ActivityKind = "refresh_obligation_catalog"
	ActivityUpdateUser         ActivityKind = "update_user"
	ActivityDeleteUser         ActivityKind = "delete_user"
)

// ActivityLog is append-only. Nothing in the repository layer updates or
// deletes rows of this table.
type ActivityLog struct {
	ID        uint64       `gorm:"primarykey" json:"id"`
	UserID    string       `gorm:"type:varchar(36);not null;index" json:"userId"`
	UserEmail string       `gorm:"type:varchar(255)" json:"userEmail"`
	Action    ActivityKind `gorm:"type:varchar(64);not null" json:"action"`
	TaskID    string       `gorm:"type:varchar(64);index" json:"taskId"`
	TaskTitle string       `gorm:"type:varchar(255)" json:"taskTitle"`
	// Set on roster changes instead of the task fields.
	TargetUserID string    `gorm:"type:varchar(36);index" json:"targetUserId,omitempty"`
	TargetEmail  string    `gorm:"type:varchar(255)" json:"targetEmail,omitempty"`
	Timestamp    time.Time `gorm:"column:logged_at;not null;index" json:"timestamp"`
}
