package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/repository"
	"gorm.io/gorm"
)

// UserService manages the roster. Profile changes and removals are written
// to the activity log in the same transaction.
type UserService struct {
	userRepo repository.UserRepository
	activity *ActivityService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, activity *ActivityService) *UserService {
	return &UserService{userRepo: userRepo, activity: activity}
}

func (s *UserService) ListUsers(actor *auth.Principal) ([]models.User, error) {
	if err := auth.Authorize(actor, auth.ActionManageUsers, auth.Target{}); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserInput holds the editable profile fields. Nil leaves a field as is.
type UpdateUserInput struct {
	DisplayName *string
	Role        *string
}

func (s *UserService) UpdateUser(ctx context.Context, actor *auth.Principal, id string, input UpdateUserInput) (*models.User, error) {
	if err := auth.Authorize(actor, auth.ActionManageUsers, auth.Target{UserID: id}); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, validationErrorf("display name cannot be empty")
		}
		user.DisplayName = name
	}
	if input.Role != nil {
		role, err := models.ParseRole(*input.Role)
		if err != nil {
			return nil, validationErrorf("role must be admin or standard")
		}
		user.Role = role
	}

	entry := newUserEntry(actor, models.ActivityUpdateUser, user)
	if err := s.userRepo.UpdateProfile(user, entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.activity.Publish(ctx, entry)
	return user, nil
}

// DeleteUser removes a user. Tasks assigned to them keep the stored name.
func (s *UserService) DeleteUser(ctx context.Context, actor *auth.Principal, id string) error {
	if err := auth.Authorize(actor, auth.ActionDeleteUser, auth.Target{UserID: id}); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	entry := newUserEntry(actor, models.ActivityDeleteUser, user)
	if err := s.userRepo.Delete(id, entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Printf("[USERS] %s removed user %s", actor.ID, id)
	s.activity.Publish(ctx, entry)
	return nil
}

func newUserEntry(actor *auth.Principal, action models.ActivityKind, target *models.User) *models.ActivityLog {
	return &models.ActivityLog{
		UserID:       actor.ID,
		UserEmail:    actor.Email,
		Action:       action,
		TargetUserID: target.ID,
		TargetEmail:  target.Email,
	}
}
