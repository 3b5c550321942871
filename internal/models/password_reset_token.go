package models

import "time"

type PasswordResetToken struct {
	Token     string    `gorm:"type:varchar(64);primaryKey" json:"-"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the token is no longer redeemable at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
