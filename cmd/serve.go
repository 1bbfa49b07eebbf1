package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/skillbridge/skillbridge_backend/internal/database"
	"github.com/skillbridge/skillbridge_backend/internal/logging"
	"github.com/skillbridge/skillbridge_backend/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SkillBridge server",
	Long: `Start the SkillBridge server with the specified configuration.
This will open the database, connect to Redis if configured, and begin
accepting HTTP and WebSocket connections.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			fmt.Println("Warning: .env file not found, using environment variables only")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}

		development := os.Getenv("APP_ENV") != "production"

		logLevel := logging.INFO
		if development {
			logLevel = logging.DEBUG
		}
		if err := logging.InitDefaultLogger(logging.Config{
			Level:   logLevel,
			Prefix:  "skillbridge",
			Colored: development,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %v", err)
		}

		cfg := server.Config{
			Port:                     envOr("PORT", strconv.Itoa(servePort)),
			JWTSecret:                os.Getenv("JWT_SECRET"),
			DataDir:                  envOr("DATA_DIR", "data"),
			BaseURL:                  envOr("BASE_URL", "http://localhost:8080"),
			RedisAddr:                os.Getenv("REDIS_ADDR"),
			RedisPassword:            os.Getenv("REDIS_PASSWORD"),
			ResendAPIKey:             os.Getenv("RESEND_API_KEY"),
			EmailFromName:            envOr("EMAIL_FROM_NAME", "SkillBridge"),
			EmailFromAddress:         envOr("EMAIL_FROM_ADDRESS", "noreply@skillbridge.dev"),
			RequireEmailVerification: os.Getenv("REQUIRE_EMAIL_VERIFICATION") == "true",
			Development:              development,
		}
		if db := os.Getenv("REDIS_DB"); db != "" {
			n, err := strconv.Atoi(db)
			if err != nil {
				return fmt.Errorf("invalid REDIS_DB value %q: %v", db, err)
			}
			cfg.RedisDB = n
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not set in the environment variables")
		}

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}

		db, err := database.New(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %v", err)
		}
		defer db.Close()

		srv, err := server.NewServer(db, cfg)
		if err != nil {
			return fmt.Errorf("failed to create server: %v", err)
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			addr := ":" + cfg.Port
			logging.Info("Starting HTTP server", map[string]interface{}{"addr": addr})
			if err := srv.Run(addr); err != nil {
				errChan <- fmt.Errorf("server error: %v", err)
			}
		}()

		select {
		case err := <-errChan:
			return err
		case sig := <-sigChan:
			logging.Info("Received signal, initiating shutdown", map[string]interface{}{"signal": sig.String()})

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown error: %v", err)
			}
			logging.Info("Shutdown completed gracefully")
		}

		return nil
	},
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to run the server on")
}
