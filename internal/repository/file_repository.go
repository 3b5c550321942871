package repository

import (
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"gorm.io/gorm"
)

// GormFileRepository is a GORM implementation of FileRepository
type GormFileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a new FileRepository
func NewFileRepository(db *gorm.DB) FileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(file *models.FileAttachment, entry *models.ActivityLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}
		return appendActivity(tx, entry)
	})
}

func (r *GormFileRepository) FindByID(id string) (*models.FileAttachment, error) {
	var file models.FileAttachment
	if err := r.db.Where("id = ?", id).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *GormFileRepository) ListByTask(taskID string) ([]models.FileAttachment, error) {
	files := []models.FileAttachment{}
	if err := r.db.Where("task_id = ?", taskID).Order("uploaded_at ASC").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *GormFileRepository) RecordDownload(id string, entry *models.ActivityLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.FileAttachment{}).
			Where("id = ?", id).
			UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return appendActivity(tx, entry)
	})
}

func (r *GormFileRepository) Delete(id string, entry *models.ActivityLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.FileAttachment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return appendActivity(tx, entry)
	})
}
