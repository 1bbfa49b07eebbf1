package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skillbridge/skillbridge_backend/internal/auth"
	"github.com/skillbridge/skillbridge_backend/internal/database"
	"github.com/skillbridge/skillbridge_backend/internal/logging"
	"github.com/skillbridge/skillbridge_backend/internal/password"
	"github.com/skillbridge/skillbridge_backend/internal/types"
)

// authUserFrom converts a database user into the token payload
func authUserFrom(user *database.User) auth.User {
	return auth.User{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Role:          string(user.Role),
		EmailVerified: user.EmailVerified,
		AccountLocked: user.AccountLocked,
		LastLogin:     user.LastLogin,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// userResponse is the public shape of a user account
func userResponse(user *database.User) gin.H {
	resp := gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"email":          user.Email,
		"role":           user.Role,
		"display_name":   user.DisplayName,
		"bio":            user.Bio,
		"email_verified": user.EmailVerified,
		"created_at":     user.CreatedAt,
	}
	if user.Role == database.RoleProvider {
		resp["skills"] = user.SkillList()
		resp["hourly_rate"] = user.HourlyRate
		if user.SkillLevel != "" {
			resp["skill_level"] = user.SkillLevel
		}
	}
	return resp
}

// registerHandler handles user registration
func (s *Server) registerHandler(c *gin.Context) {
	var req struct {
		Username    string   `json:"username" binding:"required,min=3,max=30"`
		Email       string   `json:"email" binding:"required,email"`
		Password    string   `json:"password" binding:"required"`
		Role        string   `json:"role" binding:"omitempty,oneof=student provider"`
		DisplayName string   `json:"display_name" binding:"omitempty,max=100"`
		Bio         string   `json:"bio" binding:"omitempty,max=2000"`
		Skills      []string `json:"skills" binding:"omitempty,max=20"`
		HourlyRate  string   `json:"hourly_rate" binding:"omitempty"`
		SkillLevel  string   `json:"skill_level" binding:"omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	// Validate password against the platform policy and report every violation
	validation := password.Validate(req.Password)
	if !validation.IsValid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Password is too weak",
			"details": validation.Errors,
		})
		return
	}

	// Check if username already exists
	if _, err := s.db.GetUserByUsername(req.Username); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
		return
	}

	// Check if email already exists
	if _, err := s.db.GetUserByEmail(req.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}

	role := database.RoleStudent
	if req.Role == string(database.RoleProvider) {
		role = database.RoleProvider
	}

	hourlyRate := "0"
	if req.HourlyRate != "" {
		rate, err := decimal.NewFromString(req.HourlyRate)
		if err != nil || rate.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hourly rate"})
			return
		}
		hourlyRate = rate.String()
	}

	var skillLevel types.SkillLevel
	if req.SkillLevel != "" {
		level, err := types.ParseSkillLevel(req.SkillLevel)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid skill level"})
			return
		}
		skillLevel = level
	}

	requireVerification := s.featureFlags.GetFlags().RequireEmailVerification
	user := &database.User{
		ID:            uuid.New().String(),
		Username:      req.Username,
		Email:         req.Email,
		Role:          role,
		DisplayName:   req.DisplayName,
		Bio:           req.Bio,
		Skills:        joinSkills(req.Skills),
		HourlyRate:    hourlyRate,
		SkillLevel:    skillLevel,
		EmailVerified: !requireVerification, // Skip verification if not required
	}

	if err := s.db.CreateUser(user, req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to create user: %v", err)})
		return
	}

	tokenPair, err := s.auth.GenerateTokenPair(authUserFrom(user))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to generate token: %v", err)})
		return
	}

	if err := s.db.CreateRefreshToken(user.ID, tokenPair.RefreshToken, tokenPair.ExpiresAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to store refresh token: %v", err)})
		return
	}

	response := gin.H{
		"message":       "User registered successfully",
		"user":          userResponse(user),
		"access_token":  tokenPair.AccessToken,
		"refresh_token": tokenPair.RefreshToken,
		"expires_at":    tokenPair.ExpiresAt,
	}

	// If verification is required, send the verification email
	if requireVerification {
		verificationToken, err := s.db.ResendVerificationEmail(user.Email)
		if err != nil {
			logging.LogAuthEvent("verification_token_failed", user.ID, map[string]interface{}{"error": err.Error()})
		} else {
			if err := s.email.SendVerificationEmail(c.Request.Context(), user.Email, user.Username, verificationToken); err != nil {
				logging.LogAuthEvent("verification_email_failed", user.ID, map[string]interface{}{"error": err.Error()})
			}
			response["verification_required"] = true
			if s.config.Development {
				response["verification_token"] = verificationToken
			}
		}
	}

	logging.LogAuthEvent("user_registered", user.ID, map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	})

	c.JSON(http.StatusCreated, response)
}

// loginHandler handles user login
func (s *Server) loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	// Throttle repeated attempts per username before touching the database
	if s.featureFlags.GetFlags().EnableRateLimiting {
		allowed, err := s.loginLimiter.Allow(c.Request.Context(), req.Username)
		if err != nil {
			logging.LogAuthEvent("rate_limit_check_failed", "", map[string]interface{}{"error": err.Error()})
		} else if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts, please try again later"})
			return
		}
	}

	user, err := s.db.VerifyPassword(req.Username, req.Password)
	if err != nil {
		if err.Error() == "account is locked due to too many failed login attempts" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is locked due to too many failed login attempts"})
			return
		}

		if err.Error() == "email address has not been verified" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Email address has not been verified"})
			return
		}

		// Generic error for invalid credentials
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	tokenPair, err := s.auth.GenerateTokenPair(authUserFrom(user))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to generate token: %v", err)})
		return
	}

	if err := s.db.CreateRefreshToken(user.ID, tokenPair.RefreshToken, tokenPair.ExpiresAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to store refresh token: %v", err)})
		return
	}

	// Successful login clears the attempt counter
	if err := s.loginLimiter.Reset(c.Request.Context(), req.Username); err != nil {
		logging.LogAuthEvent("rate_limit_reset_failed", user.ID, map[string]interface{}{"error": err.Error()})
	}

	logging.LogAuthEvent("user_logged_in", user.ID, map[string]interface{}{"username": user.Username})

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"user":          userResponse(user),
		"access_token":  tokenPair.AccessToken,
		"refresh_token": tokenPair.RefreshToken,
		"expires_at":    tokenPair.ExpiresAt,
	})
}

// meHandler returns the current user
func (s *Server) meHandler(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	user, err := s.db.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get user: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

// updateUserHandler updates the current user's profile
func (s *Server) updateUserHandler(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req struct {
		Username    *string  `json:"username" binding:"omitempty,min=3,max=30"`
		Email       *string  `json:"email" binding:"omitempty,email"`
		DisplayName *string  `json:"display_name" binding:"omitempty,max=100"`
		Bio         *string  `json:"bio" binding:"omitempty,max=2000"`
		Skills      []string `json:"skills" binding:"omitempty,max=20"`
		HourlyRate  *string  `json:"hourly_rate" binding:"omitempty"`
		SkillLevel  *string  `json:"skill_level" binding:"omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := s.db.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get user: %v", err)})
		return
	}

	if req.Username != nil && *req.Username != user.Username {
		if _, err := s.db.GetUserByUsername(*req.Username); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
			return
		}
		user.Username = *req.Username
	}

	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.db.GetUserByEmail(*req.Email); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		user.Email = *req.Email
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Skills != nil {
		user.Skills = joinSkills(req.Skills)
	}
	if req.HourlyRate != nil {
		rate, err := decimal.NewFromString(*req.HourlyRate)
		if err != nil || rate.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hourly rate"})
			return
		}
		user.HourlyRate = rate.String()
	}
	if req.SkillLevel != nil {
		if *req.SkillLevel == "" {
			user.SkillLevel = ""
		} else {
			level, err := types.ParseSkillLevel(*req.SkillLevel)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid skill level"})
				return
			}
			user.SkillLevel = level
		}
	}

	if err := s.db.UpdateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to update user: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    userResponse(user),
	})
}

// changePasswordHandler changes the current user's password
func (s *Server) changePasswordHandler(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
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

	user, err := s.db.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get user: %v", err)})
		return
	}

	if _, err := s.db.VerifyPassword(user.Username, req.CurrentPassword); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid current password"})
		return
	}

	if err := s.db.UpdatePassword(userID, req.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to update password: %v", err)})
		return
	}

	logging.LogAuthEvent("password_changed", userID, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// deleteUserHandler deletes the current user
func (s *Server) deleteUserHandler(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if err := s.db.DeleteUser(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to delete user: %v", err)})
		return
	}

	logging.LogAuthEvent("user_deleted", userID, nil)

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// joinSkills normalizes a skills slice into the comma-separated column format
func joinSkills(skills []string) string {
	out := ""
	for _, skill := range skills {
		if skill == "" {
			continue
		}
		if out != "" {
			out += ","
		}
		out += skill
	}
	return out
}
