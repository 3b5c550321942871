package repository

import (
	"fmt"
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/database"
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"gorm.io/gorm"
)

// GormActivityRepository is a GORM implementation of ActivityRepository
type GormActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) Append(entry *models.ActivityLog) error {
	return appendActivity(r.db, entry)
}

func (r *GormActivityRepository) List(filter ActivityFilter) ([]models.ActivityLog, int64, error) {
	query := r.db.Model(&models.ActivityLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog
	listQuery := query.Scopes(database.NewestFirst("logged_at"), database.Paginate(filter.Pagination))
	if err := listQuery.Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// appendActivity writes entry using tx, which may be a transaction.
func appendActivity(tx *gorm.DB, entry *models.ActivityLog) error {
	if entry == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrAppendActivity, err)
	}
	return nil
}
