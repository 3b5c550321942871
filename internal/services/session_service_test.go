package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/models"
)

func (suite *ServiceTestSuite) signExternal(secret []byte, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	suite.Require().NoError(err)
	return token
}

func (suite *ServiceTestSuite) TestResolve_LocalMatchesDirectLookup() {
	user := suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	p, err := suite.sessions.Resolve(suite.ctx, auth.IssueLocalToken(user.ID))
	suite.Require().NoError(err)

	direct, err := suite.userRepo.FindByID(user.ID)
	suite.Require().NoError(err)
	suite.Equal(direct.ID, p.ID)
	suite.Equal(direct.Email, p.Email)
	suite.Equal(direct.DisplayName, p.DisplayName)
	suite.Equal(direct.Role, p.Role)
	suite.Equal(auth.KindLocal, p.Kind)
}

func (suite *ServiceTestSuite) TestResolve_LocalUnknownUser() {
	_, err := suite.sessions.Resolve(suite.ctx, "mock-token-does-not-exist")
	suite.ErrorIs(err, ErrUnauthenticated)
}

func (suite *ServiceTestSuite) TestResolve_Empty() {
	_, err := suite.sessions.Resolve(suite.ctx, "  ")
	suite.ErrorIs(err, ErrMissingBearerCredential)
}

func (suite *ServiceTestSuite) TestResolve_ExternalWithoutProvider() {
	_, err := suite.sessions.Resolve(suite.ctx, "eyJhbGciOiJIUzI1NiJ9.e30.sig")
	suite.ErrorIs(err, ErrExternalAuthUnavailable)
}

func (suite *ServiceTestSuite) TestResolve_External() {
	secret := []byte("provider-secret")
	sessions := NewSessionService(suite.userRepo, auth.NewHS256Verifier(secret, "", ""))
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	exp := time.Now().Add(time.Hour).Unix()

	known, err := sessions.Resolve(suite.ctx, suite.signExternal(secret, jwt.MapClaims{"sub": admin.ID, "exp": exp}))
	suite.Require().NoError(err)
	suite.Equal(models.RoleAdmin, known.Role)
	suite.Equal(auth.KindExternal, known.Kind)

	stranger, err := sessions.Resolve(suite.ctx, suite.signExternal(secret, jwt.MapClaims{
		"sub": "idp-42", "email": "novo@cliente.com", "exp": exp,
	}))
	suite.Require().NoError(err)
	suite.Equal("idp-42", stranger.ID)
	suite.Equal("novo@cliente.com", stranger.Email)
	suite.Equal(models.RoleStandard, stranger.Role)

	_, err = sessions.Resolve(suite.ctx, suite.signExternal([]byte("other"), jwt.MapClaims{"sub": admin.ID, "exp": exp}))
	suite.ErrorIs(err, ErrInvalidExternalToken)
}

func (suite *ServiceTestSuite) TestResolveUserID() {
	user := suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	p, err := suite.sessions.ResolveUserID(user.ID)
	suite.Require().NoError(err)
	suite.Equal(auth.KindSession, p.Kind)

	_, err = suite.sessions.ResolveUserID("gone")
	suite.ErrorIs(err, ErrUnauthenticated)
}
