package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/repository"
	"github.com/yukikurage/tax-task-tracker/internal/resettoken"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordMismatch     = errors.New("the password does not match the current password")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrInvalidResetToken    = errors.New("invalid or expired token")
	ErrResetTokenExpired    = errors.New("token expired")
)

// AuthService handles registration, login and the password reset protocol.
type AuthService struct {
	userRepo     repository.UserRepository
	resetTokens  resettoken.Store
	exposeTokens bool
	resetURLBase string
	now          func() time.Time
}

// AuthOptions controls how reset tokens are handed back to callers.
type AuthOptions struct {
	// ExposeResetTokens returns the token and URL in the response instead
	// of only logging them.
	ExposeResetTokens bool
	ResetURLBase      string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, resetTokens resettoken.Store, opts AuthOptions) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		resetTokens:  resetTokens,
		exposeTokens: opts.ExposeResetTokens,
		resetURLBase: opts.ResetURLBase,
		now:          time.Now,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
}

// Register creates a user. The first account in an empty roster becomes an
// administrator.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.DisplayName)
	if name == "" || email == "" || input.Password == "" {
		return nil, validationErrorf("display name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, validationErrorf("email is not valid")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, validationErrorf("password must be at least %d characters", constants.MinPasswordLength)
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		DisplayName:  name,
		Role:         models.RoleStandard,
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateBootstrapping(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, validationErrorf("email and password are required")
	}

	user, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !checkPassword(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ResetRequest is the outcome of a reset request. Token and URL are only
// filled when tokens are exposed and the email belongs to a user.
type ResetRequest struct {
	Token string
	URL   string
}

// RequestPasswordReset issues a reset token for email. Unknown emails
// succeed without a token so callers cannot enumerate the roster.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*ResetRequest, error) {
	if strings.TrimSpace(email) == "" {
		return nil, validationErrorf("email is required")
	}

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[RESET] reset requested for unknown email")
			return &ResetRequest{}, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now().UTC()
	token := &models.PasswordResetToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: now.Add(constants.ResetTokenTTL),
		CreatedAt: now,
	}
	if err := s.resetTokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := s.resetURL(token.Token)
	log.Printf("[RESET] token issued for user %s, expires %s, link %s", user.ID, token.ExpiresAt.Format(time.RFC3339), resetURL)

	if !s.exposeTokens {
		return &ResetRequest{}, nil
	}
	return &ResetRequest{Token: token.Token, URL: resetURL}, nil
}

// VerifyResetToken reports the email a token belongs to. An expired token
// is discarded.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (string, error) {
	record, err := s.resetTokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, resettoken.ErrNotFound) {
			return "", ErrInvalidResetToken
		}
		return "", fmt.Errorf("failed to load reset token: %w", err)
	}

	if record.Expired(s.now()) {
		if err := s.resetTokens.Delete(ctx, token); err != nil {
			log.Printf("[RESET] failed to discard expired token: %v", err)
		}
		return "", ErrResetTokenExpired
	}

	return record.Email, nil
}

// RedeemResetToken replaces the password of the token owner. A token is
// accepted at most once, even under concurrent redemption.
func (s *AuthService) RedeemResetToken(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return validationErrorf("new password is required")
	}
	if len(newPassword) < constants.MinPasswordLength {
		return validationErrorf("password must be at least %d characters", constants.MinPasswordLength)
	}

	record, err := s.resetTokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, resettoken.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if record.Expired(s.now()) {
		return ErrResetTokenExpired
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(record.UserID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Printf("[RESET] password replaced for user %s", record.UserID)
	s.revokeResetTokens(ctx, record.UserID)
	return nil
}

// VerifyOldPassword checks password against the stored hash of email.
func (s *AuthService) VerifyOldPassword(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return validationErrorf("email and previous password are required")
	}

	user, err := s.findByEmail(email)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, password) {
		return ErrPasswordMismatch
	}
	return nil
}

// ChangePasswordDirect replaces a password given the current one.
func (s *AuthService) ChangePasswordDirect(ctx context.Context, email, oldPassword, newPassword string) error {
	if strings.TrimSpace(email) == "" || oldPassword == "" || newPassword == "" {
		return validationErrorf("email, current password and new password are required")
	}
	if len(newPassword) < constants.MinPasswordLength {
		return validationErrorf("new password must be at least %d characters", constants.MinPasswordLength)
	}

	user, err := s.findByEmail(email)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, oldPassword) {
		return ErrPasswordMismatch
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.revokeResetTokens(ctx, user.ID)
	return nil
}

// revokeResetTokens drops the reset tokens still outstanding for userID
// once their password has changed. The change itself has already been
// stored, so failures are only logged.
func (s *AuthService) revokeResetTokens(ctx context.Context, userID string) {
	n, err := s.resetTokens.DeleteByUser(ctx, userID)
	if err != nil {
		log.Printf("[RESET] failed to revoke reset tokens of user %s: %v", userID, err)
		return
	}
	if n > 0 {
		log.Printf("[RESET] revoked %d outstanding reset tokens of user %s", n, userID)
	}
}

// PurgeExpiredResetTokens drops tokens past their expiry.
func (s *AuthService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.resetTokens.PurgeExpired(ctx, s.now())
}

func (s *AuthService) findByEmail(email string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *AuthService) resetURL(token string) string {
	if s.resetURLBase == "" {
		return ""
	}
	return s.resetURLBase + "?token=" + url.QueryEscape(token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
