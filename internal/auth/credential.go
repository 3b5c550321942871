package auth

import (
	"errors"
	"strings"

	"github.com/yukikurage/tax-task-tracker/internal/constants"
)

var ErrMissingCredential = errors.New("missing bearer credential")

// Credential is either a LocalCredential or an ExternalCredential.
type Credential interface {
	credential()
}

// LocalCredential embeds a user id and is resolved by direct lookup.
type LocalCredential struct {
	UserID string
}

// ExternalCredential is a signed token issued by an identity provider.
type ExternalCredential struct {
	Token string
}

func (LocalCredential) credential()    {}
func (ExternalCredential) credential() {}

// ParseCredential classifies a raw bearer value by its prefix.
func ParseCredential(raw string) (Credential, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingCredential
	}
	if strings.HasPrefix(raw, constants.LocalTokenPrefix) {
		userID := strings.TrimPrefix(raw, constants.LocalTokenPrefix)
		if userID == "" {
			return nil, ErrMissingCredential
		}
		return LocalCredential{UserID: userID}, nil
	}
	return ExternalCredential{Token: raw}, nil
}

// BearerValue extracts the token from an Authorization header value.
func BearerValue(header string) (string, bool) {
	if len(header) < len(constants.BearerPrefix) ||
		!strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(constants.BearerPrefix):])
	return token, token != ""
}

// IssueLocalToken returns the persistent local credential for userID.
func IssueLocalToken(userID string) string {
	return constants.LocalTokenPrefix + userID
}
