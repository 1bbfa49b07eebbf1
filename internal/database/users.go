package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/skillbridge/skillbridge_backend/internal/password"
	"github.com/skillbridge/skillbridge_backend/internal/types"
)

// UserRole defines the role of a user
type UserRole string

// User roles
const (
	RoleAdmin    UserRole = "admin"
	RoleProvider UserRole = "provider"
	RoleStudent  UserRole = "student"
)

// maxFailedLogins is the number of failed attempts before lockout
const maxFailedLogins = 5

// User represents a user in the database
type User struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"` // Don't include in JSON
	Role                UserRole   `json:"role"`
	DisplayName         string     `json:"display_name"`
	Bio                 string     `json:"bio"`
	Skills              string           `json:"skills"`      // Comma-separated skill tags
	HourlyRate          string           `json:"hourly_rate"` // Decimal string, e.g. "45.50"
	SkillLevel          types.SkillLevel `json:"skill_level,omitempty"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	FailedLoginAttempts int        `json:"-"`
	AccountLocked       bool       `json:"account_locked"`
	EmailVerified       bool       `json:"email_verified"`
	VerificationToken   *string    `json:"-"`
	ResetToken          *string    `json:"-"`
	ResetTokenExpires   *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// SkillList splits the comma-separated skills column into tags
func (u *User) SkillList() []string {
	if u.Skills == "" {
		return nil
	}
	parts := strings.Split(u.Skills, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			skills = append(skills, tag)
		}
	}
	return skills
}

// RefreshToken represents a JWT refresh token in the database
type RefreshToken struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

const userColumns = `
	id, username, email, password_hash, role, display_name, bio, skills,
	hourly_rate, skill_level, last_login, failed_login_attempts,
	account_locked, email_verified, verification_token, reset_token,
	reset_token_expires, created_at, updated_at`

// scanUser scans a single user row from a query using userColumns
func scanUser(row *sql.Row) (*User, error) {
	var user User
	var lastLogin, resetTokenExpires sql.NullTime
	var verificationToken, resetToken sql.NullString
	var role, skillLevel string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.DisplayName,
		&user.Bio,
		&user.Skills,
		&user.HourlyRate,
		&skillLevel,
		&lastLogin,
		&user.FailedLoginAttempts,
		&user.AccountLocked,
		&user.EmailVerified,
		&verificationToken,
		&resetToken,
		&resetTokenExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = UserRole(role)
	user.SkillLevel = types.SkillLevel(skillLevel)

	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	if verificationToken.Valid {
		user.VerificationToken = &verificationToken.String
	}
	if resetToken.Valid {
		user.ResetToken = &resetToken.String
	}
	if resetTokenExpires.Valid {
		user.ResetTokenExpires = &resetTokenExpires.Time
	}

	return &user, nil
}

// CreateUser creates a new user, hashing the supplied plaintext password
func (d *Database) CreateUser(user *User, plaintext string) error {
	passwordHash, err := password.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}
	user.PasswordHash = passwordHash

	// Generate verification token if email is not verified
	if !user.EmailVerified {
		token, err := password.GenerateSalt()
		if err != nil {
			return fmt.Errorf("failed to generate verification token: %v", err)
		}
		user.VerificationToken = &token
	}

	if user.Role == "" {
		user.Role = RoleStudent
	}
	if user.HourlyRate == "" {
		user.HourlyRate = "0"
	}

	query := `INSERT INTO users (
		id, username, email, password_hash, role, display_name, bio, skills,
		hourly_rate, skill_level, account_locked, email_verified,
		verification_token, failed_login_attempts
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = d.db.Exec(
		query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.DisplayName,
		user.Bio,
		user.Skills,
		user.HourlyRate,
		string(user.SkillLevel),
		user.AccountLocked,
		user.EmailVerified,
		user.VerificationToken,
		user.FailedLoginAttempts,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %v", err)
	}

	return nil
}

// GetUserByID gets a user by ID
func (d *Database) GetUserByID(id string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(d.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	return user, nil
}

// GetUserByUsername gets a user by username
func (d *Database) GetUserByUsername(username string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE username = ?`

	user, err := scanUser(d.db.QueryRow(query, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with username %s not found", username)
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	return user, nil
}

// GetUserByEmail gets a user by email
func (d *Database) GetUserByEmail(email string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(d.db.QueryRow(query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	return user, nil
}

// UpdateUser updates a user's account and profile fields
func (d *Database) UpdateUser(user *User) error {
	query := `UPDATE users SET
		username = ?,
		email = ?,
		role = ?,
		display_name = ?,
		bio = ?,
		skills = ?,
		hourly_rate = ?,
		skill_level = ?,
		account_locked = ?,
		email_verified = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`

	_, err := d.db.Exec(
		query,
		user.Username,
		user.Email,
		user.Role,
		user.DisplayName,
		user.Bio,
		user.Skills,
		user.HourlyRate,
		string(user.SkillLevel),
		user.AccountLocked,
		user.EmailVerified,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
	}

	return nil
}

// UpdatePassword updates a user's password and clears lockout state
func (d *Database) UpdatePassword(userID string, plaintext string) error {
	passwordHash, err := password.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	query := `UPDATE users SET
		password_hash = ?,
		failed_login_attempts = 0,
		account_locked = 0,
		reset_token = NULL,
		reset_token_expires = NULL,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`

	_, err = d.db.Exec(query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %v", err)
	}

	return nil
}

// DeleteUser deletes a user and their refresh tokens
func (d *Database) DeleteUser(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	// Refresh tokens first due to the foreign key constraint
	if _, err := tx.Exec("DELETE FROM refresh_tokens WHERE user_id = ?", id); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete refresh tokens: %v", err)
	}

	if _, err := tx.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete user: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// VerifyPassword verifies a user's password, tracking failed attempts and
// locking the account after too many failures
func (d *Database) VerifyPassword(username, plaintext string) (*User, error) {
	user, err := d.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}

	if user.AccountLocked {
		return nil, fmt.Errorf("account is locked due to too many failed login attempts")
	}

	if !user.EmailVerified {
		return nil, fmt.Errorf("email address has not been verified")
	}

	match, err := password.Compare(plaintext, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %v", err)
	}

	if !match {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			user.AccountLocked = true
		}

		updateQuery := `UPDATE users SET
			failed_login_attempts = ?,
			account_locked = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

		if _, updateErr := d.db.Exec(updateQuery, user.FailedLoginAttempts, user.AccountLocked, user.ID); updateErr != nil {
			// Log but don't leak attempt-tracking failures to the caller
			fmt.Printf("Failed to update login attempts: %v\n", updateErr)
		}

		return nil, fmt.Errorf("invalid password")
	}

	now := time.Now()
	user.LastLogin = &now
	user.FailedLoginAttempts = 0

	updateQuery := `UPDATE users SET
		failed_login_attempts = 0,
		last_login = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`

	if _, updateErr := d.db.Exec(updateQuery, now, user.ID); updateErr != nil {
		fmt.Printf("Failed to update last login: %v\n", updateErr)
	}

	return user, nil
}

// SearchProviders finds provider accounts whose username, display name, or
// skills match the query. Returns the page of results plus the total count.
func (d *Database) SearchProviders(query, skill string, limit, offset int) ([]*User, int, error) {
	where := "WHERE role = ?"
	args := []any{string(RoleProvider)}

	if query != "" {
		where += " AND (username LIKE ? OR display_name LIKE ? OR skills LIKE ?)"
		term := "%" + query + "%"
		args = append(args, term, term, term)
	}
	if skill != "" {
		where += " AND skills LIKE ?"
		args = append(args, "%"+skill+"%")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM users " + where
	if err := d.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count providers: %v", err)
	}

	listQuery := `SELECT` + userColumns + ` FROM users ` + where + `
		ORDER BY username ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := d.db.Query(listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search providers: %v", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var user User
		var lastLogin, resetTokenExpires sql.NullTime
		var verificationToken, resetToken sql.NullString
		var role, skillLevel string

		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&role,
			&user.DisplayName,
			&user.Bio,
			&user.Skills,
			&user.HourlyRate,
			&skillLevel,
			&lastLogin,
			&user.FailedLoginAttempts,
			&user.AccountLocked,
			&user.EmailVerified,
			&verificationToken,
			&resetToken,
			&resetTokenExpires,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan provider: %v", err)
		}

		user.Role = UserRole(role)
		user.SkillLevel = types.SkillLevel(skillLevel)
		if lastLogin.Valid {
			user.LastLogin = &lastLogin.Time
		}
		users = append(users, &user)
	}

	return users, total, nil
}

// CreateRefreshToken creates a new refresh token for a user
func (d *Database) CreateRefreshToken(userID string, token string, expiresAt time.Time) error {
	query := `INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?, ?, ?)`
	if _, err := d.db.Exec(query, userID, token, expiresAt); err != nil {
		return fmt.Errorf("failed to create refresh token: %v", err)
	}

	return nil
}

// GetRefreshToken gets a refresh token by token string, deleting it if it
// has expired
func (d *Database) GetRefreshToken(token string) (*RefreshToken, error) {
	query := `SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE token = ?`
	var refreshToken RefreshToken

	err := d.db.QueryRow(query, token).Scan(
		&refreshToken.ID,
		&refreshToken.UserID,
		&refreshToken.Token,
		&refreshToken.ExpiresAt,
		&refreshToken.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("refresh token not found")
		}
		return nil, fmt.Errorf("failed to get refresh token: %v", err)
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		d.DeleteRefreshToken(token)
		return nil, fmt.Errorf("refresh token has expired")
	}

	return &refreshToken, nil
}

// DeleteRefreshToken deletes a refresh token
func (d *Database) DeleteRefreshToken(token string) error {
	if _, err := d.db.Exec(`DELETE FROM refresh_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete refresh token: %v", err)
	}

	return nil
}

// DeleteUserRefreshTokens deletes all refresh tokens for a user
func (d *Database) DeleteUserRefreshTokens(userID string) error {
	if _, err := d.db.Exec(`DELETE FROM refresh_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user refresh tokens: %v", err)
	}

	return nil
}

// CleanupExpiredTokens removes all expired refresh tokens
func (d *Database) CleanupExpiredTokens() error {
	if _, err := d.db.Exec(`DELETE FROM refresh_tokens WHERE expires_at < ?`, time.Now()); err != nil {
		return fmt.Errorf("failed to cleanup expired tokens: %v", err)
	}

	return nil
}

// CreatePasswordResetToken creates a password reset token for a user
func (d *Database) CreatePasswordResetToken(email string) (string, error) {
	user, err := d.GetUserByEmail(email)
	if err != nil {
		return "", err
	}

	resetToken, err := password.GenerateSalt()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %v", err)
	}

	expiresAt := time.Now().Add(24 * time.Hour)

	query := `UPDATE users SET
		reset_token = ?,
		reset_token_expires = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`

	if _, err := d.db.Exec(query, resetToken, expiresAt, user.ID); err != nil {
		return "", fmt.Errorf("failed to create password reset token: %v", err)
	}

	return resetToken, nil
}

// VerifyPasswordResetToken verifies a password reset token
func (d *Database) VerifyPasswordResetToken(token string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE reset_token = ?`

	user, err := scanUser(d.db.QueryRow(query, token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid reset token")
		}
		return nil, fmt.Errorf("failed to verify reset token: %v", err)
	}

	if user.ResetTokenExpires == nil || time.Now().After(*user.ResetTokenExpires) {
		clearQuery := `UPDATE users SET
			reset_token = NULL,
			reset_token_expires = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

		if _, err := d.db.Exec(clearQuery, user.ID); err != nil {
			fmt.Printf("Failed to clear expired reset token: %v\n", err)
		}

		return nil, fmt.Errorf("reset token has expired")
	}

	return user, nil
}

// ResetPassword resets a user's password using a reset token
func (d *Database) ResetPassword(token, newPassword string) error {
	user, err := d.VerifyPasswordResetToken(token)
	if err != nil {
		return err
	}

	if err := d.UpdatePassword(user.ID, newPassword); err != nil {
		return err
	}

	clearQuery := `UPDATE users SET
		reset_token = NULL,
		reset_token_expires = NULL,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`

	if _, err := d.db.Exec(clearQuery, user.ID); err != nil {
		fmt.Printf("Failed to clear reset token: %v\n", err)
	}

	return nil
}

// VerifyEmail verifies a user's email address using a verification token
func (d *Database) VerifyEmail(token string) error {
	var userID string
	err := d.db.QueryRow(`SELECT id FROM users WHERE verification_token = ?`, token).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("invalid verification token")
		}
		return fmt.Errorf("failed to verify email: %v", err)
	}

	updateQuery := `UPDATE users SET
		email_verified = 1,
		verification_token = NULL,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`

	if _, err := d.db.Exec(updateQuery, userID); err != nil {
		return fmt.Errorf("failed to update email verification status: %v", err)
	}

	return nil
}

// ResendVerificationEmail generates a new verification token for a user
func (d *Database) ResendVerificationEmail(email string) (string, error) {
	user, err := d.GetUserByEmail(email)
	if err != nil {
		return "", err
	}

	if user.EmailVerified {
		return "", fmt.Errorf("email is already verified")
	}

	token, err := password.GenerateSalt()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification token: %v", err)
	}

	query := `UPDATE users SET
		verification_token = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`

	if _, err := d.db.Exec(query, token, user.ID); err != nil {
		return "", fmt.Errorf("failed to update verification token: %v", err)
	}

	return token, nil
}
