package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// ParseTaskStatus accepts the canonical values and the legacy client labels.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendente":
		return TaskStatusPending, nil
	case "in_progress", "em_andamento":
		return TaskStatusInProgress, nil
	case "completed", "concluida", "concluída":
		return TaskStatusCompleted, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	default:
		return false
	}
}

// ParseFrequency accepts the canonical values and the legacy client labels.
// An empty string yields FrequencyMonthly.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monthly", "mensal":
		return FrequencyMonthly, nil
	case "weekly", "semanal":
		return FrequencyWeekly, nil
	case "quarterly", "trimestral":
		return FrequencyQuarterly, nil
	case "yearly", "anual":
		return FrequencyYearly, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

type Task struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	AssigneeID   string     `gorm:"type:varchar(36);not null;index" json:"assigneeId"`
	AssigneeName string     `gorm:"type:varchar(255)" json:"assigneeName"`
	DueDate      time.Time  `gorm:"not null;index" json:"dueDate"`
	Notes        string     `gorm:"type:text" json:"notes"`
	Status       TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Recurring    bool       `gorm:"not null;default:false" json:"recurring"`
	Frequency    Frequency  `gorm:"type:varchar(20);not null;default:'monthly'" json:"frequency"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Relations
	Attachments []FileAttachment `gorm:"foreignKey:TaskID" json:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	if t.Frequency == "" {
		t.Frequency = FrequencyMonthly
	}
	return nil
}
