package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillbridge/skillbridge_backend/internal/database"
)

// providerResult is the public search result shape for a provider
func (s *Server) providerResult(c *gin.Context, user *database.User) gin.H {
	result := gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"bio":          user.Bio,
		"skills":       user.SkillList(),
		"hourly_rate":  user.HourlyRate,
	}
	if user.SkillLevel != "" {
		result["skill_level"] = user.SkillLevel
	}

	if rating, err := s.db.GetProviderRating(user.ID); err == nil {
		result["average_rating"] = rating.AverageRating
		result["review_count"] = rating.ReviewCount
	}

	if online, err := s.tracker.IsOnline(c.Request.Context(), user.ID); err == nil {
		result["online"] = online
	}

	return result
}

// searchProvidersHandler searches providers by free text and skill tag
func (s *Server) searchProvidersHandler(c *gin.Context) {
	if !s.featureFlags.GetFlags().EnableSearch {
		c.JSON(http.StatusForbidden, gin.H{"error": "Search is disabled"})
		return
	}

	query := c.Query("q")
	skill := c.Query("skill")

	params := GetPaginationParams(c)
	providers, total, err := s.db.SearchProviders(query, skill, params.PageSize, params.CalculateOffset())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to search providers: %v", err)})
		return
	}

	results := make([]gin.H, 0, len(providers))
	for _, provider := range providers {
		results = append(results, s.providerResult(c, provider))
	}

	params.Total = total
	SendPaginatedResponse(c, params, results)
}

// getUserProfileHandler returns a user's public profile
func (s *Server) getUserProfileHandler(c *gin.Context) {
	user, err := s.db.GetUserByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	profile := gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"bio":          user.Bio,
		"role":         user.Role,
		"created_at":   user.CreatedAt,
	}

	if user.Role == database.RoleProvider {
		profile["skills"] = user.SkillList()
		profile["hourly_rate"] = user.HourlyRate
		if user.SkillLevel != "" {
			profile["skill_level"] = user.SkillLevel
		}

		if rating, err := s.db.GetProviderRating(user.ID); err == nil {
			profile["average_rating"] = rating.AverageRating
			profile["review_count"] = rating.ReviewCount
		}
	}

	if online, err := s.tracker.IsOnline(c.Request.Context(), user.ID); err == nil {
		profile["online"] = online
	}

	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// setupUserRoutes sets up the public user discovery routes
func (s *Server) setupUserRoutes() {
	userGroup := s.router.Group("/api/users")
	{
		userGroup.GET("/search", s.searchProvidersHandler)
		userGroup.GET("/:id", s.getUserProfileHandler)
	}
}
