package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/skillbridge/skillbridge_backend/internal/auth"
	"github.com/skillbridge/skillbridge_backend/internal/database"
	"github.com/skillbridge/skillbridge_backend/internal/email"
	"github.com/skillbridge/skillbridge_backend/internal/logging"
	"github.com/skillbridge/skillbridge_backend/internal/presence"
)

// Server is the HTTP API for the tutoring platform
type Server struct {
	router       *gin.Engine
	db           database.Store
	auth         *auth.Auth
	email        *email.Service
	featureFlags *FeatureFlagManager
	tracker      *presence.Tracker
	loginLimiter *presence.LoginLimiter
	hub          *ChatHub
	config       Config
	httpServer   *http.Server
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
	EnableCompression: true,
}

// NewServer creates a new HTTP server with WebSocket chat support
func NewServer(db database.Store, cfg Config) (*Server, error) {
	router := gin.New()

	authService := auth.New(auth.Config{
		JWTSecret:            cfg.JWTSecret,
		TokenDuration:        time.Hour,
		RefreshTokenDuration: 7 * 24 * time.Hour,
	})

	emailService := email.NewService(cfg.ResendAPIKey, cfg.EmailFromName, cfg.EmailFromAddress, cfg.BaseURL)

	featureFlags, err := NewFeatureFlagManager(filepath.Join(cfg.DataDir, "feature_flags.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize feature flags: %v", err)
	}

	// Environment config can force verification on; admins may still toggle
	// the persisted flag later through the features endpoint
	if cfg.RequireEmailVerification {
		flags := featureFlags.GetFlags()
		if !flags.RequireEmailVerification {
			flags.RequireEmailVerification = true
			if err := featureFlags.UpdateFlags(flags); err != nil {
				return nil, fmt.Errorf("failed to save feature flags: %v", err)
			}
		}
	}

	// Presence and rate limiting degrade to no-ops without Redis
	var tracker *presence.Tracker
	var loginLimiter *presence.LoginLimiter
	if cfg.RedisAddr != "" {
		client, err := presence.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %v", err)
		}
		tracker = presence.NewTracker(client, 0)
		loginLimiter = presence.NewLoginLimiter(client, 0, 0)
	} else {
		logging.Warn("Redis not configured, presence and login rate limiting are disabled")
	}

	server := &Server{
		router:       router,
		db:           db,
		auth:         authService,
		email:        emailService,
		featureFlags: featureFlags,
		tracker:      tracker,
		loginLimiter: loginLimiter,
		config:       cfg,
	}
	server.hub = NewChatHub(db, tracker)

	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(RecoveryMiddleware(cfg.Development))
	router.Use(ErrorHandler(cfg.Development))
	router.Use(corsMiddleware())

	router.GET("/health", server.healthHandler)

	server.setupAuthRoutes()
	server.setupPasswordRoutes()
	server.setupUserRoutes()
	server.setupSessionRoutes()
	server.setupReviewRoutes()
	server.setupFeatureFlagRoutes()

	return server, nil
}

// corsMiddleware allows cross-origin requests from the web frontend
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, HEAD")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// healthHandler reports service health
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// Router returns the underlying gin engine, used in tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Starting server", map[string]interface{}{"addr": addr})

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
