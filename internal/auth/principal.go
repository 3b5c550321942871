package auth

import "github.com/yukikurage/tax-task-tracker/internal/models"

// CredentialKind records which credential variant authenticated a principal.
type CredentialKind string

const (
	KindLocal    CredentialKind = "local"
	KindExternal CredentialKind = "external"
	KindSession  CredentialKind = "session"
)

type Principal struct {
	ID          string         `json:"uid"`
	Email       string         `json:"email"`
	DisplayName string         `json:"displayName"`
	Role        models.Role    `json:"role"`
	Kind        CredentialKind `json:"kind,omitempty"`
}

func PrincipalFromUser(u *models.User, kind CredentialKind) *Principal {
	return &Principal{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Kind:        kind,
	}
}

func (p *Principal) IsAdmin() bool {
	return p != nil && isAdmin(p.Role)
}
