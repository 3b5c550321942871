package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	"github.com/yukikurage/tax-task-tracker/internal/dto"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/middleware"
	"github.com/yukikurage/tax-task-tracker/internal/models"
)

func (suite *HandlerTestSuite) authRouter() *gin.Engine {
	handler := NewAuthHandler(suite.authService)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/register", handler.Register)
	r.POST("/api/login", handler.Login)
	r.POST("/api/logout", handler.Logout)
	r.GET("/api/me", middleware.RequireAuth(suite.sessionService), handler.Me)
	return r
}

func (suite *HandlerTestSuite) post(r *gin.Engine, url string, payload interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(suite.jsonBody(payload)))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) TestRegister_FirstUserIsAdmin() {
	r := suite.authRouter()

	w := suite.post(r, "/api/register", map[string]string{
		"displayName": "Ana Souza",
		"email":       "Ana@Escritorio.com",
		"password":    "supersecret",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var response dto.LoginResponse
	suite.decode(w, &response)
	suite.Equal("ana@escritorio.com", response.User.Email)
	suite.Equal(models.RoleAdmin, response.User.Role)
	suite.Equal(auth.IssueLocalToken(response.User.ID), response.Token)

	w = suite.post(r, "/api/register", map[string]string{
		"displayName": "Bruno",
		"email":       "bruno@escritorio.com",
		"password":    "supersecret",
	})
	suite.Require().Equal(http.StatusCreated, w.Code)
	suite.decode(w, &response)
	suite.Equal(models.RoleStandard, response.User.Role)
}

func (suite *HandlerTestSuite) TestRegister_DuplicateEmail() {
	suite.createTestUser("ana@escritorio.com", models.RoleAdmin)

	w := suite.post(suite.authRouter(), "/api/register", map[string]string{
		"displayName": "Ana",
		"email":       "ana@escritorio.com",
		"password":    "supersecret",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeAlreadyExists, suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestRegister_InvalidBody() {
	w := suite.post(suite.authRouter(), "/api/register", map[string]string{"email": "ana@escritorio.com"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidInput, suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestLogin_SetsSessionAndToken() {
	user := suite.createTestUser("ana@escritorio.com", models.RoleStandard)
	r := suite.authRouter()

	w := suite.post(r, "/api/login", map[string]string{
		"email":    "ana@escritorio.com",
		"password": testPassword,
	})
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.LoginResponse
	suite.decode(w, &response)
	suite.Equal("mock-token-"+user.ID, response.Token)
	suite.Equal(user.ID, response.User.ID)

	cookies := w.Result().Cookies()
	suite.Require().NotEmpty(cookies, "expected session cookie to be set")

	// The session cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	suite.Require().Equal(http.StatusOK, me.Code, me.Body.String())

	var body struct {
		User auth.Principal `json:"user"`
	}
	suite.decode(me, &body)
	suite.Equal(user.ID, body.User.ID)
	suite.Equal(auth.KindSession, body.User.Kind)
}

func (suite *HandlerTestSuite) TestLogin_WrongPassword() {
	suite.createTestUser("ana@escritorio.com", models.RoleStandard)

	w := suite.post(suite.authRouter(), "/api/login", map[string]string{
		"email":    "ana@escritorio.com",
		"password": "nope-nope",
	})

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidCredentials, suite.errorCode(w))
	suite.Empty(w.Result().Cookies())
}

func (suite *HandlerTestSuite) TestMe_BearerToken() {
	user := suite.createTestUser("ana@escritorio.com", models.RoleAdmin)
	r := suite.authRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+auth.IssueLocalToken(user.ID))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	suite.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		User auth.Principal `json:"user"`
	}
	suite.decode(w, &body)
	suite.Equal(user.Email, body.User.Email)
	suite.Equal(models.RoleAdmin, body.User.Role)
	suite.Equal(auth.KindLocal, body.User.Kind)
}

func (suite *HandlerTestSuite) TestLogout_ClearsSession() {
	suite.createTestUser("ana@escritorio.com", models.RoleStandard)
	r := suite.authRouter()

	login := suite.post(r, "/api/login", map[string]string{
		"email":    "ana@escritorio.com",
		"password": testPassword,
	})
	suite.Require().Equal(http.StatusOK, login.Code)

	logout := suite.post(r, "/api/logout", map[string]string{}, login.Result().Cookies()...)
	suite.Require().Equal(http.StatusOK, logout.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	for _, ck := range logout.Result().Cookies() {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}
