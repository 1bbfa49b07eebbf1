package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skillbridge/skillbridge_backend/internal/auth"
	"github.com/skillbridge/skillbridge_backend/internal/database"
	"github.com/skillbridge/skillbridge_backend/internal/logging"
	"github.com/skillbridge/skillbridge_backend/internal/types"
)

const (
	minSessionMinutes = 15
	maxSessionMinutes = 480
)

// bookSessionHandler books a tutoring session with a provider
func (s *Server) bookSessionHandler(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req struct {
		ProviderID      string    `json:"provider_id" binding:"required"`
		Skill           string    `json:"skill" binding:"required,max=50"`
		Topic           string    `json:"topic" binding:"omitempty,max=200"`
		ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
		DurationMinutes int       `json:"duration_minutes" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if req.DurationMinutes < minSessionMinutes || req.DurationMinutes > maxSessionMinutes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Duration must be between %d and %d minutes", minSessionMinutes, maxSessionMinutes)})
		return
	}

	if req.ScheduledAt.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session must be scheduled in the future"})
		return
	}

	if req.ProviderID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot book a session with yourself"})
		return
	}

	provider, err := s.db.GetUserByID(req.ProviderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}
	if provider.Role != database.RoleProvider {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User is not a provider"})
		return
	}

	// Snapshot the provider's rate and price the session up front
	rate, err := decimal.NewFromString(provider.HourlyRate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Provider has an invalid hourly rate"})
		return
	}
	price := rate.Mul(decimal.NewFromInt(int64(req.DurationMinutes))).Div(decimal.NewFromInt(60)).Round(2)

	session := &database.Session{
		ID:              uuid.New().String(),
		StudentID:       userID,
		ProviderID:      provider.ID,
		Skill:           req.Skill,
		Topic:           req.Topic,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		HourlyRate:      rate.String(),
		Price:           price.String(),
	}

	if err := s.db.CreateSession(session); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to book session: %v", err)})
		return
	}

	logging.LogSessionEvent("session_booked", session.ID, map[string]interface{}{
		"student_id":  userID,
		"provider_id": provider.ID,
		"skill":       req.Skill,
		"price":       session.Price,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Session booked successfully",
		"session": session,
	})
}

// listSessionsHandler lists the current user's sessions
func (s *Server) listSessionsHandler(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	status := c.Query("status")
	if status != "" {
		if _, err := types.ParseSessionStatus(status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid status: %s", status)})
			return
		}
	}

	params := GetPaginationParams(c)
	sessions, total, err := s.db.ListUserSessions(userID, status, params.PageSize, params.CalculateOffset())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to list sessions: %v", err)})
		return
	}

	params.Total = total
	SendPaginatedResponse(c, params, sessions)
}

// getSessionForParticipant loads a session and verifies the caller takes part in it
func (s *Server) getSessionForParticipant(c *gin.Context) (*database.Session, string, bool) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, "", false
	}

	session, err := s.db.GetSession(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, "", false
	}

	if !session.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a participant in this session"})
		return nil, "", false
	}

	return session, userID, true
}

// getSessionHandler returns a single session
func (s *Server) getSessionHandler(c *gin.Context) {
	session, _, ok := s.getSessionForParticipant(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// cancelSessionHandler cancels a scheduled session
func (s *Server) cancelSessionHandler(c *gin.Context) {
	session, userID, ok := s.getSessionForParticipant(c)
	if !ok {
		return
	}

	if err := s.db.UpdateSessionStatus(session.ID, types.SessionCancelled); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Failed to cancel session: %v", err)})
		return
	}

	logging.LogSessionEvent("session_cancelled", session.ID, map[string]interface{}{"cancelled_by": userID})

	c.JSON(http.StatusOK, gin.H{"message": "Session cancelled successfully"})
}

// completeSessionHandler marks a session as completed. Only the provider
// can complete a session.
func (s *Server) completeSessionHandler(c *gin.Context) {
	session, userID, ok := s.getSessionForParticipant(c)
	if !ok {
		return
	}

	if session.ProviderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the provider can complete a session"})
		return
	}

	if err := s.db.UpdateSessionStatus(session.ID, types.SessionCompleted); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Failed to complete session: %v", err)})
		return
	}

	logging.LogSessionEvent("session_completed", session.ID, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Session completed successfully"})
}

// sessionMessagesHandler returns a page of the session's chat history
func (s *Server) sessionMessagesHandler(c *gin.Context) {
	session, _, ok := s.getSessionForParticipant(c)
	if !ok {
		return
	}

	params := GetPaginationParams(c)
	messages, total, err := s.db.GetSessionMessages(session.ID, params.PageSize, params.CalculateOffset())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get messages: %v", err)})
		return
	}

	params.Total = total
	SendPaginatedResponse(c, params, messages)
}

// setupSessionRoutes sets up the session booking and chat routes
func (s *Server) setupSessionRoutes() {
	sessionGroup := s.router.Group("/api/sessions")
	sessionGroup.Use(s.auth.Middleware())
	{
		sessionGroup.POST("", s.bookSessionHandler)
		sessionGroup.GET("", s.listSessionsHandler)
		sessionGroup.GET("/:id", s.getSessionHandler)
		sessionGroup.POST("/:id/cancel", s.cancelSessionHandler)
		sessionGroup.POST("/:id/complete", s.completeSessionHandler)
		sessionGroup.GET("/:id/messages", s.sessionMessagesHandler)
	}

	// Websocket chat endpoint; token is passed as a query parameter
	s.router.GET("/ws/sessions/:id", s.auth.Middleware(), s.sessionChatHandler)
}
