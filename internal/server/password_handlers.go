package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillbridge/skillbridge_backend/internal/password"
)

// passwordStrengthHandler evaluates a candidate password and returns its
// score, level, feedback, and policy violations. Used by the signup form
// for live strength meters.
func (s *Server) passwordStrengthHandler(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	strength := password.Evaluate(req.Password)
	validation := password.Validate(req.Password)

	c.JSON(http.StatusOK, gin.H{
		"strength":   strength,
		"validation": validation,
	})
}

// passwordGenerateHandler generates a random password under the requested
// policy. Missing fields fall back to the default policy.
func (s *Server) passwordGenerateHandler(c *gin.Context) {
	policy := password.DefaultGenerationPolicy()

	// An empty body keeps the defaults
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&policy); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
	}

	generated, err := password.GenerateSecure(policy)
	if err != nil {
		if errors.Is(err, password.ErrNoCharacterSets) || errors.Is(err, password.ErrInvalidLength) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"password": generated,
		"strength": password.Evaluate(generated),
	})
}

// setupPasswordRoutes sets up the password utility routes
func (s *Server) setupPasswordRoutes() {
	passwordGroup := s.router.Group("/api/password")
	{
		passwordGroup.POST("/strength", s.passwordStrengthHandler)
		passwordGroup.POST("/generate", s.passwordGenerateHandler)
	}
}
