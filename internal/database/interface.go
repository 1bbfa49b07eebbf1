package database

import (
	"time"

	"github.com/skillbridge/skillbridge_backend/internal/types"
)

// Store defines the interface for database operations, letting handlers be
// tested against fakes
type Store interface {
	Close() error

	// User management
	CreateUser(user *User, plaintext string) error
	GetUserByID(id string) (*User, error)
	GetUserByUsername(username string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	UpdateUser(user *User) error
	DeleteUser(id string) error
	VerifyPassword(username, plaintext string) (*User, error)
	UpdatePassword(userID string, plaintext string) error
	SearchProviders(query, skill string, limit, offset int) ([]*User, int, error)

	// Authentication
	CreateRefreshToken(userID, token string, expiresAt time.Time) error
	GetRefreshToken(token string) (*RefreshToken, error)
	DeleteRefreshToken(token string) error
	DeleteUserRefreshTokens(userID string) error
	CleanupExpiredTokens() error
	CreatePasswordResetToken(email string) (string, error)
	VerifyPasswordResetToken(token string) (*User, error)
	ResetPassword(token, newPassword string) error
	VerifyEmail(token string) error
	ResendVerificationEmail(email string) (string, error)

	// Sessions
	CreateSession(session *Session) error
	GetSession(id string) (*Session, error)
	ListUserSessions(userID string, status string, limit, offset int) ([]*Session, int, error)
	UpdateSessionStatus(id string, status types.SessionStatus) error

	// Chat messages
	SaveMessage(sessionID, senderID, content string) (*Message, error)
	GetSessionMessages(sessionID string, limit, offset int) ([]*Message, int, error)

	// Reviews
	SaveReview(review *Review) error
	GetReview(id int) (*Review, error)
	GetProviderReviews(providerID string, limit, offset int) ([]*Review, int, error)
	GetProviderRating(providerID string) (*ProviderRating, error)
	DeleteReview(id int, reviewerID string) error

	// Migration runner
	RunMigrations() error
}

// Ensure Database implements Store
var _ Store = (*Database)(nil)
