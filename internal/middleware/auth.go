package middleware

import (
	"errors"
	"fmt"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/services"
)

// RequireAuth resolves the caller from the Authorization header, falling back
// to the session cookie set at login.
func RequireAuth(sessionService *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			principal *auth.Principal
			err       error
		)

		if raw, ok := auth.BearerValue(c.GetHeader("Authorization")); ok {
			principal, err = sessionService.Resolve(c.Request.Context(), raw)
		} else if userID := sessionUserID(c); userID != "" {
			principal, err = sessionService.ResolveUserID(userID)
		} else {
			apierrors.Unauthorized(c, "")
			return
		}

		if err != nil {
			respondSessionError(c, err)
			return
		}

		c.Set(constants.ContextKeyPrincipal, principal)
		c.Set(constants.ContextKeyUserID, principal.ID)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if !principal.IsAdmin() {
			apierrors.Forbidden(c, "Administrator access required")
			return
		}
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated caller from context
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	value, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*auth.Principal)
	return principal, ok && principal != nil
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	if principal, ok := GetPrincipal(c); ok {
		return principal.ID, true
	}
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

func sessionUserID(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	switch v := sessions.Default(c).Get(constants.ContextKeyUserID).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrExternalAuthUnavailable),
		errors.Is(err, services.ErrInvalidExternalToken),
		errors.Is(err, services.ErrMissingBearerCredential):
		apierrors.Unauthorized(c, err.Error())
	default:
		apierrors.InternalError(c, "Failed to resolve session")
	}
}
