// Package server assembles the HTTP routes.
package server

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/handlers"
	"github.com/yukikurage/tax-task-tracker/internal/middleware"
	"github.com/yukikurage/tax-task-tracker/internal/ratelimit"
	"github.com/yukikurage/tax-task-tracker/internal/services"
	"gorm.io/gorm"
)

// Deps carries everything the routes need.
type Deps struct {
	DB           *gorm.DB
	SessionStore sessions.Store

	Limiter            ratelimit.Limiter
	RateLimitPerMinute int

	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For. Empty means the client
	// address is always the TCP peer.
	TrustedProxies []string
	FrontendDist   string

	Sessions    *services.SessionService
	Auth        *services.AuthService
	Users       *services.UserService
	Tasks       *services.TaskService
	Files       *services.FileService
	Obligations *services.ObligationService
	Activity    *services.ActivityService
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		log.Printf("[SERVER] invalid trusted proxies %v, trusting none: %v", d.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.SecurityHeaders(), middleware.CORS(d.AllowedOrigins))
	r.Use(sessions.Sessions(constants.SessionCookieName, d.SessionStore))

	authHandler := handlers.NewAuthHandler(d.Auth)
	passwordHandler := handlers.NewPasswordHandler(d.Auth)
	userHandler := handlers.NewUserHandler(d.Users)
	taskHandler := handlers.NewTaskHandler(d.Tasks)
	fileHandler := handlers.NewFileHandler(d.Files)
	obligationHandler := handlers.NewObligationHandler(d.Obligations)
	logHandler := handlers.NewLogHandler(d.Activity)
	healthHandler := handlers.NewHealthHandler(d.DB)

	r.GET("/health", healthHandler.Health)

	limit := func(scope string) gin.HandlerFunc {
		if d.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return ratelimit.Middleware(d.Limiter, d.RateLimitPerMinute, scope)
	}
	requireAuth := middleware.RequireAuth(d.Sessions)

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		// Credentials (public, throttled)
		api.POST("/login", limit("login"), authHandler.Login)
		api.POST("/register", limit("register"), authHandler.Register)
		api.POST("/logout", authHandler.Logout)
		api.GET("/me", requireAuth, authHandler.Me)

		api.POST("/reset-password", limit("password"), passwordHandler.RequestReset)
		api.GET("/reset-password/:token", limit("password"), passwordHandler.VerifyToken)
		api.POST("/reset-password/:token", limit("password"), passwordHandler.Redeem)
		api.POST("/verify-old-password", limit("password"), passwordHandler.VerifyOldPassword)
		api.POST("/change-password-direct", limit("password"), passwordHandler.ChangeDirect)

		authed := api.Group("", requireAuth)

		users := authed.Group("/users", middleware.RequireAdmin())
		{
			users.GET("", userHandler.ListUsers)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		tasks := authed.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.PATCH("/:id/status", taskHandler.UpdateTaskStatus)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		authed.POST("/upload", fileHandler.Upload)
		files := authed.Group("/files")
		{
			files.GET("/:id/download", fileHandler.Download)
			files.GET("/task/:id", fileHandler.ListByTask)
			files.DELETE("/:id", fileHandler.Delete)
		}

		agenda := authed.Group("/agenda-obligations", middleware.RequireAdmin())
		{
			agenda.GET("/catalog", obligationHandler.Catalog)
			agenda.POST("/month", obligationHandler.GenerateMonth)
			agenda.POST("/year", obligationHandler.GenerateYear)
			agenda.POST("/next-month", obligationHandler.GenerateNextMonth)
			agenda.POST("/refresh", obligationHandler.Refresh)
			agenda.POST("/extract", obligationHandler.Extract)
		}

		logs := authed.Group("/logs")
		{
			logs.GET("", logHandler.ListLogs)
			logs.POST("", logHandler.AppendLog)
		}
	}

	r.NoRoute(spaFallback(d.FrontendDist))
	return r
}

// spaFallback serves the built front end for non-API GET requests, with
// index.html standing in for client-side routes.
func spaFallback(dist string) gin.HandlerFunc {
	index := filepath.Join(dist, "index.html")
	enabled := dist != "" && fileExists(index)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !enabled || c.Request.Method != http.MethodGet || strings.HasPrefix(path, "/api") {
			apierrors.NotFound(c, "Route not found")
			return
		}

		candidate := filepath.Join(dist, filepath.FromSlash(filepath.Clean("/"+path)))
		if fileExists(candidate) {
			c.File(candidate)
			return
		}
		c.File(index)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
