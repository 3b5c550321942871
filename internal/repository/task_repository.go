package repository

import (
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) Create(task *models.Task, entry *models.ActivityLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		if entry != nil {
			entry.TaskID = task.ID
		}
		return appendActivity(tx, entry)
	})
}

// FindByID finds a task by ID with its attachments
func (r *GormTaskRepository) FindByID(id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.Preload("Attachments", orderAttachments).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering, ordered by due date
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	query := r.db.Model(&models.Task{})

	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date < ?", *filter.DueTo)
	}

	var tasks []models.Task
	if err := query.Preload("Attachments", orderAttachments).
		Order("due_date ASC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *GormTaskRepository) Update(task *models.Task, entry *models.ActivityLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
			"title":         task.Title,
			"assignee_id":   task.AssigneeID,
			"assignee_name": task.AssigneeName,
			"due_date":      task.DueDate,
			"notes":         task.Notes,
			"status":        task.Status,
			"recurring":     task.Recurring,
			"frequency":     task.Frequency,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return appendActivity(tx, entry)
	})
}

func (r *GormTaskRepository) UpdateStatus(id string, status models.TaskStatus, entry *models.ActivityLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).Where("id = ?", id).Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return appendActivity(tx, entry)
	})
}

// Delete removes a task together with its attachment records
func (r *GormTaskRepository) Delete(id string, entry *models.ActivityLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.FileAttachment{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return appendActivity(tx, entry)
	})
}

func (r *GormTaskRepository) Exists(title string, dueDate time.Time, assigneeID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("title = ? AND due_date = ? AND assignee_id = ?", title, dueDate, assigneeID).
		Count(&count).Error
	return count > 0, err
}

func orderAttachments(db *gorm.DB) *gorm.DB {
	return db.Order("uploaded_at ASC")
}
