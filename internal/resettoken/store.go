// Package resettoken persists single-use password reset tokens.
package resettoken

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/models"
)

var ErrNotFound = errors.New("reset token not found")

// Store owns reset tokens for their whole lifetime. Consume is an atomic
// check-and-delete: for concurrent calls with the same token exactly one
// receives the record and the rest get ErrNotFound.
type Store interface {
	Save(ctx context.Context, token *models.PasswordResetToken) error
	Get(ctx context.Context, token string) (*models.PasswordResetToken, error)
	Consume(ctx context.Context, token string) (*models.PasswordResetToken, error)
	Delete(ctx context.Context, token string) error
	// DeleteByUser drops every token issued to userID and reports how many
	// were removed.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
