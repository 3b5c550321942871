package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/utils"
)

var (
	// ErrAppendActivity is returned when the activity entry of a mutation
	// cannot be written. The mutation itself is rolled back.
	ErrAppendActivity = errors.New("repository: append activity log failed")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateBootstrapping creates a user. When the roster is empty the user
	// is promoted to admin inside the same transaction.
	CreateBootstrapping(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List returns all users ordered by display name
	List() ([]models.User, error)

	// UpdateProfile saves display name and role together with entry
	UpdateProfile(user *models.User, entry *models.ActivityLog) error

	// UpdatePassword replaces the stored password hash
	UpdatePassword(id, passwordHash string) error

	// Delete removes a user together with writing entry
	Delete(id string, entry *models.ActivityLog) error
}

// TaskRepository defines the interface for task data access. Every mutation
// writes its activity entry in the same transaction.
type TaskRepository interface {
	Create(task *models.Task, entry *models.ActivityLog) error

	// FindByID finds a task with its attachments
	FindByID(id string) (*models.Task, error)

	// List retrieves tasks with their attachments
	List(filter TaskFilter) ([]models.Task, error)

	Update(task *models.Task, entry *models.ActivityLog) error

	UpdateStatus(id string, status models.TaskStatus, entry *models.ActivityLog) error

	// Delete removes the task and its attachment records
	Delete(id string, entry *models.ActivityLog) error

	// Exists reports whether a task with the same title, due date and assignee exists
	Exists(title string, dueDate time.Time, assigneeID string) (bool, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	AssigneeID *string
	Status     *models.TaskStatus
	DueFrom    *time.Time
	DueTo      *time.Time
}

// FileRepository defines the interface for attachment metadata
type FileRepository interface {
	Create(file *models.FileAttachment, entry *models.ActivityLog) error

	FindByID(id string) (*models.FileAttachment, error)

	ListByTask(taskID string) ([]models.FileAttachment, error)

	// RecordDownload increments the download counter by one
	RecordDownload(id string, entry *models.ActivityLog) error

	Delete(id string, entry *models.ActivityLog) error
}

// ActivityRepository defines the interface for the append-only activity log
type ActivityRepository interface {
	Append(entry *models.ActivityLog) error

	List(filter ActivityFilter) ([]models.ActivityLog, int64, error)
}

// ActivityFilter holds filtering options for listing activity entries
type ActivityFilter struct {
	UserID     *string
	Pagination utils.PaginationParams
}
