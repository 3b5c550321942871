package resettoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/models"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Save(ctx context.Context, token *models.PasswordResetToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *GormStore) Get(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) Consume(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		result := tx.Where("token = ?", token).Delete(&models.PasswordResetToken{})
		if result.Error != nil {
			return fmt.Errorf("delete reset token: %w", result.Error)
		}
		// Another redemption deleted it between our read and delete.
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) Delete(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.PasswordResetToken{}).Error
}

func (s *GormStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PasswordResetToken{})
	return result.RowsAffected, result.Error
}

func (s *GormStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.PasswordResetToken{})
	return result.RowsAffected, result.Error
}
