package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// ExternalIdentity is what an identity provider vouches for.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

// ExternalVerifier checks identity-provider tokens.
type ExternalVerifier interface {
	Verify(ctx context.Context, token string) (*ExternalIdentity, error)
}

// JWTVerifier verifies HS256 or RS256 signed JWTs.
type JWTVerifier struct {
	key     interface{}
	options []jwt.ParserOption
}

func NewHS256Verifier(secret []byte, issuer, audience string) *JWTVerifier {
	return newJWTVerifier(secret, jwt.SigningMethodHS256.Alg(), issuer, audience)
}

func NewRS256Verifier(publicKeyPEM []byte, issuer, audience string) (*JWTVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse RS256 public key: %w", err)
	}
	return newJWTVerifier(key, jwt.SigningMethodRS256.Alg(), issuer, audience), nil
}

func newJWTVerifier(key interface{}, alg, issuer, audience string) *JWTVerifier {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		options = append(options, jwt.WithAudience(audience))
	}
	return &JWTVerifier{key: key, options: options}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*ExternalIdentity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, v.options...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	identity := &ExternalIdentity{Subject: subject}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}
