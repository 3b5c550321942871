package services

import (
	"sync"
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/models"
)

func (suite *ServiceTestSuite) TestRegister_FirstUserIsAdmin() {
	first, err := suite.authService.Register(RegisterInput{DisplayName: "Chefe", Email: " Chefe@Escritorio.com ", Password: "secret1"})
	suite.Require().NoError(err)
	suite.Equal(models.RoleAdmin, first.Role)
	suite.Equal("chefe@escritorio.com", first.Email)
	suite.NotEqual("secret1", first.PasswordHash)

	second, err := suite.authService.Register(RegisterInput{DisplayName: "Ana", Email: "ana@escritorio.com", Password: "secret1"})
	suite.Require().NoError(err)
	suite.Equal(models.RoleStandard, second.Role)
}

func (suite *ServiceTestSuite) TestRegister_Validation() {
	_, err := suite.authService.Register(RegisterInput{DisplayName: "Ana", Email: "ana@escritorio.com", Password: "123"})
	suite.ErrorIs(err, ErrValidation)

	_, err = suite.authService.Register(RegisterInput{DisplayName: "", Email: "ana@escritorio.com", Password: "secret1"})
	suite.ErrorIs(err, ErrValidation)

	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")
	_, err = suite.authService.Register(RegisterInput{DisplayName: "Ana", Email: "ANA@escritorio.com", Password: "secret1"})
	suite.ErrorIs(err, ErrEmailTaken)
}

func (suite *ServiceTestSuite) TestLogin() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	user, err := suite.authService.Login(LoginInput{Email: "ana@escritorio.com", Password: "secret1"})
	suite.Require().NoError(err)
	suite.Equal("ana@escritorio.com", user.Email)

	_, err = suite.authService.Login(LoginInput{Email: "ana@escritorio.com", Password: "senha123"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = suite.authService.Login(LoginInput{Email: "nobody@escritorio.com", Password: "secret1"})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *ServiceTestSuite) TestResetToken_AcceptedExactlyOnce() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	req, err := suite.authService.RequestPasswordReset(suite.ctx, "ana@escritorio.com")
	suite.Require().NoError(err)
	suite.Require().NotEmpty(req.Token)
	suite.Contains(req.URL, req.Token)

	email, err := suite.authService.VerifyResetToken(suite.ctx, req.Token)
	suite.Require().NoError(err)
	suite.Equal("ana@escritorio.com", email)

	suite.Require().NoError(suite.authService.RedeemResetToken(suite.ctx, req.Token, "brand-new"))
	suite.ErrorIs(suite.authService.RedeemResetToken(suite.ctx, req.Token, "another1"), ErrInvalidResetToken)

	_, err = suite.authService.Login(LoginInput{Email: "ana@escritorio.com", Password: "brand-new"})
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestResetToken_RedemptionRevokesOtherTokens() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	first, err := suite.authService.RequestPasswordReset(suite.ctx, "ana@escritorio.com")
	suite.Require().NoError(err)
	second, err := suite.authService.RequestPasswordReset(suite.ctx, "ana@escritorio.com")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.authService.RedeemResetToken(suite.ctx, first.Token, "brand-new"))

	_, err = suite.authService.VerifyResetToken(suite.ctx, second.Token)
	suite.ErrorIs(err, ErrInvalidResetToken)
	suite.ErrorIs(suite.authService.RedeemResetToken(suite.ctx, second.Token, "attacker1"), ErrInvalidResetToken)
	suite.Equal(int64(0), suite.countRows(&models.PasswordResetToken{}))

	_, err = suite.authService.Login(LoginInput{Email: "ana@escritorio.com", Password: "brand-new"})
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestChangePasswordDirect_RevokesResetTokens() {
	ana := suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")
	beto := suite.createUser("beto@escritorio.com", models.RoleStandard, "secret1")

	pending, err := suite.authService.RequestPasswordReset(suite.ctx, ana.Email)
	suite.Require().NoError(err)
	_, err = suite.authService.RequestPasswordReset(suite.ctx, beto.Email)
	suite.Require().NoError(err)

	// A failed change keeps the token
	suite.ErrorIs(suite.authService.ChangePasswordDirect(suite.ctx, ana.Email, "wrong-1", "brand-new"), ErrPasswordMismatch)
	_, err = suite.authService.VerifyResetToken(suite.ctx, pending.Token)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.authService.ChangePasswordDirect(suite.ctx, ana.Email, "secret1", "brand-new"))
	suite.ErrorIs(suite.authService.RedeemResetToken(suite.ctx, pending.Token, "attacker1"), ErrInvalidResetToken)
	suite.Equal(int64(1), suite.countRows(&models.PasswordResetToken{}), "other users keep their tokens")
}

func (suite *ServiceTestSuite) TestResetToken_ConcurrentRedemptionHasOneWinner() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")
	req, err := suite.authService.RequestPasswordReset(suite.ctx, "ana@escritorio.com")
	suite.Require().NoError(err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if suite.authService.RedeemResetToken(suite.ctx, req.Token, "brand-new") == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	suite.Equal(1, wins)
}

func (suite *ServiceTestSuite) TestResetToken_Expiry() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")
	issued := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	suite.authService.now = func() time.Time { return issued }

	first, err := suite.authService.RequestPasswordReset(suite.ctx, "ana@escritorio.com")
	suite.Require().NoError(err)
	second, err := suite.authService.RequestPasswordReset(suite.ctx, "ana@escritorio.com")
	suite.Require().NoError(err)

	suite.authService.now = func() time.Time { return issued.Add(31 * time.Minute) }

	_, err = suite.authService.VerifyResetToken(suite.ctx, first.Token)
	suite.ErrorIs(err, ErrResetTokenExpired)
	_, err = suite.authService.VerifyResetToken(suite.ctx, first.Token)
	suite.ErrorIs(err, ErrInvalidResetToken, "expired token is discarded on verification")

	suite.ErrorIs(suite.authService.RedeemResetToken(suite.ctx, second.Token, "brand-new"), ErrResetTokenExpired)
	_, err = suite.authService.Login(LoginInput{Email: "ana@escritorio.com", Password: "secret1"})
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestResetToken_ShortPasswordKeepsToken() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")
	req, err := suite.authService.RequestPasswordReset(suite.ctx, "ana@escritorio.com")
	suite.Require().NoError(err)

	suite.ErrorIs(suite.authService.RedeemResetToken(suite.ctx, req.Token, "123"), ErrValidation)
	suite.NoError(suite.authService.RedeemResetToken(suite.ctx, req.Token, "123456"))
}

func (suite *ServiceTestSuite) TestResetRequest_UnknownEmailRevealsNothing() {
	req, err := suite.authService.RequestPasswordReset(suite.ctx, "ghost@escritorio.com")
	suite.Require().NoError(err)
	suite.Empty(req.Token)
	suite.Equal(int64(0), suite.countRows(&models.PasswordResetToken{}))
}

func (suite *ServiceTestSuite) TestResetRequest_TokensHiddenOutsideDevelopment() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")
	svc := NewAuthService(suite.userRepo, suite.authService.resetTokens, AuthOptions{})

	req, err := svc.RequestPasswordReset(suite.ctx, "ana@escritorio.com")
	suite.Require().NoError(err)
	suite.Empty(req.Token)
	suite.Equal(int64(1), suite.countRows(&models.PasswordResetToken{}))
}

func (suite *ServiceTestSuite) TestPurgeExpiredResetTokens() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")
	issued := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	suite.authService.now = func() time.Time { return issued }
	_, err := suite.authService.RequestPasswordReset(suite.ctx, "ana@escritorio.com")
	suite.Require().NoError(err)

	suite.authService.now = func() time.Time { return issued.Add(time.Hour) }
	purged, err := suite.authService.PurgeExpiredResetTokens(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(1), purged)
}

func (suite *ServiceTestSuite) TestVerifyOldPassword_IsExact() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	suite.NoError(suite.authService.VerifyOldPassword("ana@escritorio.com", "secret1"))
	suite.ErrorIs(suite.authService.VerifyOldPassword("ana@escritorio.com", "secret12"), ErrPasswordMismatch)
	suite.ErrorIs(suite.authService.VerifyOldPassword("ana@escritorio.com", "SECRET1"), ErrPasswordMismatch)
	suite.ErrorIs(suite.authService.VerifyOldPassword("ghost@escritorio.com", "secret1"), ErrUserNotFound)
	suite.ErrorIs(suite.authService.VerifyOldPassword("ana@escritorio.com", ""), ErrValidation)
}

func (suite *ServiceTestSuite) TestChangePasswordDirect() {
	suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	suite.ErrorIs(suite.authService.ChangePasswordDirect(suite.ctx, "ana@escritorio.com", "wrong-1", "brand-new"), ErrPasswordMismatch)
	suite.ErrorIs(suite.authService.ChangePasswordDirect(suite.ctx, "ana@escritorio.com", "secret1", "short"), ErrValidation)
	suite.Require().NoError(suite.authService.ChangePasswordDirect(suite.ctx, "ana@escritorio.com", "secret1", "brand-new"))

	_, err := suite.authService.Login(LoginInput{Email: "ana@escritorio.com", Password: "brand-new"})
	suite.NoError(err)
}
