package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillbridge/skillbridge_backend/internal/logging"
	"github.com/skillbridge/skillbridge_backend/internal/password"
)

// refreshTokenHandler handles token refresh
func (s *Server) refreshTokenHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	refreshToken, err := s.db.GetRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	user, err := s.db.GetUserByID(refreshToken.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}

	if user.AccountLocked {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is locked"})
		return
	}

	if s.featureFlags.GetFlags().RequireEmailVerification && !user.EmailVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Email address has not been verified"})
		return
	}

	tokenPair, err := s.auth.GenerateTokenPair(authUserFrom(user))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to generate token: %v", err)})
		return
	}

	// Rotate: delete the old refresh token, store the new one
	if err := s.db.DeleteRefreshToken(req.RefreshToken); err != nil {
		logging.LogAuthEvent("refresh_token_delete_failed", user.ID, map[string]interface{}{"error": err.Error()})
	}

	if err := s.db.CreateRefreshToken(user.ID, tokenPair.RefreshToken, tokenPair.ExpiresAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to store refresh token: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Token refreshed successfully",
		"access_token":  tokenPair.AccessToken,
		"refresh_token": tokenPair.RefreshToken,
		"expires_at":    tokenPair.ExpiresAt,
	})
}

// verifyEmailHandler verifies a user's email address
func (s *Server) verifyEmailHandler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verification token is required"})
		return
	}

	if err := s.db.VerifyEmail(token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to verify email: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// forgotPasswordHandler initiates the password reset process
func (s *Server) forgotPasswordHandler(c *gin.Context) {
	if !s.featureFlags.GetFlags().AllowPasswordReset {
		c.JSON(http.StatusForbidden, gin.H{"error": "Password reset is disabled"})
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	// Don't reveal whether the email exists
	response := gin.H{"message": "If your email is registered, you will receive a password reset link"}

	resetToken, err := s.db.CreatePasswordResetToken(req.Email)
	if err != nil {
		c.JSON(http.StatusOK, response)
		return
	}

	user, err := s.db.GetUserByEmail(req.Email)
	if err == nil {
		if err := s.email.SendPasswordResetEmail(c.Request.Context(), user.Email, user.Username, resetToken); err != nil {
			logging.LogAuthEvent("reset_email_failed", user.ID, map[string]interface{}{"error": err.Error()})
		}
	}

	if s.config.Development {
		response["reset_token"] = resetToken
	}

	c.JSON(http.StatusOK, response)
}

// resetPasswordHandler resets a user's password using a reset token
func (s *Server) resetPasswordHandler(c *gin.Context) {
	if !s.featureFlags.GetFlags().AllowPasswordReset {
		c.JSON(http.StatusForbidden, gin.H{"error": "Password reset is disabled"})
		return
	}

	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	validation := password.Validate(req.NewPassword)
	if !validation.IsValid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Password is too weak",
			"details": validation.Errors,
		})
		return
	}

	if err := s.db.ResetPassword(req.Token, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to reset password: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// resendVerificationHandler resends the verification email
func (s *Server) resendVerificationHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	// Don't reveal whether the email exists
	response := gin.H{"message": "If your email is registered and not verified, you will receive a verification email"}

	verificationToken, err := s.db.ResendVerificationEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusOK, response)
		return
	}

	user, err := s.db.GetUserByEmail(req.Email)
	if err == nil {
		if err := s.email.SendVerificationEmail(c.Request.Context(), user.Email, user.Username, verificationToken); err != nil {
			logging.LogAuthEvent("verification_email_failed", user.ID, map[string]interface{}{"error": err.Error()})
		}
	}

	if s.config.Development {
		response["verification_token"] = verificationToken
	}

	c.JSON(http.StatusOK, response)
}

// setupAuthRoutes sets up the authentication routes
func (s *Server) setupAuthRoutes() {
	authGroup := s.router.Group("/api/auth")
	{
		// Public routes
		authGroup.POST("/register", s.registerHandler)
		authGroup.POST("/login", s.loginHandler)
		authGroup.POST("/refresh", s.refreshTokenHandler)
		authGroup.POST("/forgot-password", s.forgotPasswordHandler)
		authGroup.POST("/reset-password", s.resetPasswordHandler)
		authGroup.GET("/verify-email", s.verifyEmailHandler)
		authGroup.POST("/resend-verification", s.resendVerificationHandler)

		// Protected routes
		authGroup.Use(s.auth.Middleware())
		authGroup.GET("/me", s.meHandler)
		authGroup.PUT("/me", s.updateUserHandler)
		authGroup.POST("/change-password", s.changePasswordHandler)
		authGroup.DELETE("/me", s.deleteUserHandler)
	}
}
