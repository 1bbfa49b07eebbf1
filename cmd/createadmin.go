package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/skillbridge/skillbridge_backend/internal/database"
	"github.com/skillbridge/skillbridge_backend/internal/password"
	"github.com/spf13/cobra"
)

var (
	adminUsername string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user",
	Long: `Create an admin account directly in the database. If --password is
omitted, a secure password is generated and printed once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}

		if adminUsername == "" || adminEmail == "" {
			return fmt.Errorf("--username and --email are required")
		}

		generated := false
		if adminPassword == "" {
			var err error
			adminPassword, err = password.GenerateSecure(password.DefaultGenerationPolicy())
			if err != nil {
				return fmt.Errorf("failed to generate password: %v", err)
			}
			generated = true
		} else if result := password.Validate(adminPassword); !result.IsValid {
			return fmt.Errorf("password is too weak: %s", strings.Join(result.Errors, "; "))
		}

		dataDir := envOr("DATA_DIR", "data")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}

		db, err := database.New(dataDir)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %v", err)
		}
		defer db.Close()

		user := &database.User{
			ID:            uuid.New().String(),
			Username:      adminUsername,
			Email:         adminEmail,
			Role:          database.RoleAdmin,
			DisplayName:   adminUsername,
			EmailVerified: true,
		}
		if err := db.CreateUser(user, adminPassword); err != nil {
			return fmt.Errorf("failed to create admin user: %v", err)
		}

		fmt.Printf("Created admin user %s (%s)\n", user.Username, user.ID)
		if generated {
			fmt.Printf("Generated password: %s\n", adminPassword)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVarP(&adminUsername, "username", "u", "", "admin username")
	createAdminCmd.Flags().StringVarP(&adminEmail, "email", "e", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (generated when omitted)")
}
