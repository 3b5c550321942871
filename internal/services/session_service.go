package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrUnauthenticated         = errors.New("user not found")
	ErrExternalAuthUnavailable = errors.New("external authentication is not available in this deployment; use a mock-token-<id> credential")
	ErrInvalidExternalToken    = errors.New("invalid token")
	ErrMissingBearerCredential = errors.New("missing bearer credential")
)

// SessionService resolves bearer credentials and session cookies into principals.
type SessionService struct {
	userRepo repository.UserRepository
	verifier auth.ExternalVerifier
}

// NewSessionService creates a new SessionService. verifier may be nil, in
// which case external credentials are refused.
func NewSessionService(userRepo repository.UserRepository, verifier auth.ExternalVerifier) *SessionService {
	return &SessionService{
		userRepo: userRepo,
		verifier: verifier,
	}
}

// Resolve turns a raw bearer value into a principal.
func (s *SessionService) Resolve(ctx context.Context, raw string) (*auth.Principal, error) {
	cred, err := auth.ParseCredential(raw)
	if err != nil {
		return nil, ErrMissingBearerCredential
	}

	switch c := cred.(type) {
	case auth.LocalCredential:
		return s.lookup(c.UserID, auth.KindLocal)
	case auth.ExternalCredential:
		return s.resolveExternal(ctx, c)
	default:
		return nil, fmt.Errorf("unhandled credential %T", cred)
	}
}

// ResolveUserID resolves the user id stored in a session cookie.
func (s *SessionService) ResolveUserID(userID string) (*auth.Principal, error) {
	return s.lookup(userID, auth.KindSession)
}

func (s *SessionService) lookup(userID string, kind auth.CredentialKind) (*auth.Principal, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return auth.PrincipalFromUser(user, kind), nil
}

func (s *SessionService) resolveExternal(ctx context.Context, c auth.ExternalCredential) (*auth.Principal, error) {
	if s.verifier == nil {
		return nil, ErrExternalAuthUnavailable
	}

	identity, err := s.verifier.Verify(ctx, c.Token)
	if err != nil {
		log.Printf("[AUTH] external token rejected: %v", err)
		return nil, ErrInvalidExternalToken
	}

	// Known subjects get their roster role; anyone else is a standard user.
	user, err := s.userRepo.FindByID(identity.Subject)
	switch {
	case err == nil:
		return auth.PrincipalFromUser(user, auth.KindExternal), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &auth.Principal{
			ID:          identity.Subject,
			Email:       identity.Email,
			DisplayName: identity.Name,
			Role:        models.RoleStandard,
			Kind:        auth.KindExternal,
		}, nil
	default:
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
}
