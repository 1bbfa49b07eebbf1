package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skillbridge/skillbridge_backend/internal/auth"
	"github.com/skillbridge/skillbridge_backend/internal/database"
	"github.com/skillbridge/skillbridge_backend/internal/types"
)

// createReviewHandler lets the student review a completed session
func (s *Server) createReviewHandler(c *gin.Context) {
	if !s.featureFlags.GetFlags().EnableReviews {
		c.JSON(http.StatusForbidden, gin.H{"error": "Reviews are disabled"})
		return
	}

	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Rating    int    `json:"rating" binding:"required,min=1,max=5"`
		Comment   string `json:"comment" binding:"omitempty,max=2000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, err := s.db.GetSession(req.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	// Only the student can review, and only after the session completed
	if session.StudentID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the student can review a session"})
		return
	}
	if session.Status != types.SessionCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Only completed sessions can be reviewed"})
		return
	}

	review := &database.Review{
		SessionID:  session.ID,
		ReviewerID: userID,
		ProviderID: session.ProviderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}

	if err := s.db.SaveReview(review); err != nil {
		if err.Error() == "session has already been reviewed" {
			c.JSON(http.StatusConflict, gin.H{"error": "Session has already been reviewed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to save review: %v", err)})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review submitted successfully",
		"review":  review,
	})
}

// providerReviewsHandler returns a page of a provider's reviews plus the
// aggregate rating
func (s *Server) providerReviewsHandler(c *gin.Context) {
	if !s.featureFlags.GetFlags().EnableReviews {
		c.JSON(http.StatusForbidden, gin.H{"error": "Reviews are disabled"})
		return
	}

	providerID := c.Param("id")

	rating, err := s.db.GetProviderRating(providerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get rating: %v", err)})
		return
	}

	params := GetPaginationParams(c)
	reviews, total, err := s.db.GetProviderReviews(providerID, params.PageSize, params.CalculateOffset())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get reviews: %v", err)})
		return
	}

	params.Total = total
	response := BuildPaginationResponse(params, reviews)
	response["rating"] = rating
	c.JSON(http.StatusOK, response)
}

// deleteReviewHandler deletes the caller's own review
func (s *Server) deleteReviewHandler(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	if err := s.db.DeleteReview(id, userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}

// setupReviewRoutes sets up the review routes
func (s *Server) setupReviewRoutes() {
	// Public: a provider's reviews and rating
	s.router.GET("/api/providers/:id/reviews", s.providerReviewsHandler)

	reviewGroup := s.router.Group("/api/reviews")
	reviewGroup.Use(s.auth.Middleware())
	{
		reviewGroup.POST("", s.createReviewHandler)
		reviewGroup.DELETE("/:id", s.deleteReviewHandler)
	}
}
