package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/services"
)

// PasswordHandler serves the password reset and change endpoints.
type PasswordHandler struct {
	authService *services.AuthService
}

func NewPasswordHandler(authService *services.AuthService) *PasswordHandler {
	return &PasswordHandler{authService: authService}
}

// RequestReset issues a reset token. The response is the same whether or
// not the email is registered.
func (h *PasswordHandler) RequestReset(c *gin.Context) {
	type ResetRequest struct {
		Email string `json:"email" binding:"required"`
	}

	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email is required")
		return
	}

	result, err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	body := gin.H{"message": "If the email is registered, reset instructions have been sent"}
	if result.Token != "" {
		body["resetToken"] = result.Token
		body["resetUrl"] = result.URL
	}
	c.JSON(http.StatusOK, body)
}

// VerifyToken reports whether a reset token is still usable.
func (h *PasswordHandler) VerifyToken(c *gin.Context) {
	email, err := h.authService.VerifyResetToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token is valid",
		"email":   email,
	})
}

// Redeem replaces the password of the token owner.
func (h *PasswordHandler) Redeem(c *gin.Context) {
	type RedeemRequest struct {
		NewPassword string `json:"newPassword"`
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.RedeemResetToken(c.Request.Context(), c.Param("token"), req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// VerifyOldPassword checks a password without changing anything.
func (h *PasswordHandler) VerifyOldPassword(c *gin.Context) {
	type VerifyRequest struct {
		Email       string `json:"email"`
		OldPassword string `json:"oldPassword"`
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.VerifyOldPassword(req.Email, req.OldPassword); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Previous password verified"})
}

// ChangeDirect replaces a password given the current one.
func (h *PasswordHandler) ChangeDirect(c *gin.Context) {
	type ChangeRequest struct {
		Email       string `json:"email"`
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}

	var req ChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.ChangePasswordDirect(c.Request.Context(), req.Email, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
