package handlers

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tax-task-tracker/internal/auth"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/middleware"
	"github.com/yukikurage/tax-task-tracker/internal/services"
)

// respondServiceError maps service errors onto API error responses.
func respondServiceError(c *gin.Context, err error) {
	var validation *services.ValidationError

	switch {
	case errors.As(err, &validation):
		apierrors.BadRequest(c, validation.Message)
	case errors.Is(err, auth.ErrSelfDeletion):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeSelfDeletion, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrExternalAuthUnavailable),
		errors.Is(err, services.ErrInvalidExternalToken),
		errors.Is(err, services.ErrMissingBearerCredential):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrPasswordMismatch):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeAlreadyExists, err.Error())
	case errors.Is(err, services.ErrResetTokenExpired):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeTokenExpired, err.Error())
	case errors.Is(err, services.ErrInvalidResetToken):
		apierrors.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrFileNotFound),
		errors.Is(err, services.ErrStoredFileMissing):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNoObligationsExtracted):
		apierrors.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrUnsupportedMediaType),
		errors.Is(err, services.ErrFileTooLarge):
		apierrors.UnsupportedMediaType(c, err.Error())

	case errors.Is(err, services.ErrAIServiceNotConfigured),
		errors.Is(err, services.ErrCatalogFeedUnavailable):
		apierrors.ServiceUnavailable(c, err.Error())

	default:
		log.Printf("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
		apierrors.InternalError(c, "")
	}
}

// principal returns the authenticated caller, answering 401 when absent.
func principal(c *gin.Context) (*auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, false
	}
	return p, true
}
