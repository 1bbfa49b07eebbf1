package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/skillbridge/skillbridge_backend/internal/types"
)

// Session represents a booked tutoring session
type Session struct {
	ID              string              `json:"id"`
	StudentID       string              `json:"student_id"`
	ProviderID      string              `json:"provider_id"`
	StudentName     string              `json:"student_name,omitempty"`
	ProviderName    string              `json:"provider_name,omitempty"`
	Skill           string              `json:"skill"`
	Topic           string              `json:"topic,omitempty"`
	Status          types.SessionStatus `json:"status"`
	ScheduledAt     time.Time           `json:"scheduled_at"`
	DurationMinutes int                 `json:"duration_minutes"`
	HourlyRate      string              `json:"hourly_rate"` // Rate snapshot at booking time
	Price           string              `json:"price"`       // Decimal string
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// HasParticipant reports whether the user is the student or the provider
func (s *Session) HasParticipant(userID string) bool {
	return s.StudentID == userID || s.ProviderID == userID
}

const sessionColumns = `
	s.id, s.student_id, s.provider_id, st.username, pr.username,
	s.skill, s.topic, s.status, s.scheduled_at, s.duration_minutes,
	s.hourly_rate, s.price, s.created_at, s.updated_at`

const sessionJoins = `
	FROM sessions s
	JOIN users st ON st.id = s.student_id
	JOIN users pr ON pr.id = s.provider_id`

func scanSession(scanner interface{ Scan(...any) error }) (*Session, error) {
	var session Session
	var status string

	err := scanner.Scan(
		&session.ID,
		&session.StudentID,
		&session.ProviderID,
		&session.StudentName,
		&session.ProviderName,
		&session.Skill,
		&session.Topic,
		&status,
		&session.ScheduledAt,
		&session.DurationMinutes,
		&session.HourlyRate,
		&session.Price,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Status = types.SessionStatus(status)
	return &session, nil
}

// CreateSession stores a new booking
func (d *Database) CreateSession(session *Session) error {
	if session.Status == "" {
		session.Status = types.SessionScheduled
	}

	query := `INSERT INTO sessions (
		id, student_id, provider_id, skill, topic, status, scheduled_at,
		duration_minutes, hourly_rate, price
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := d.db.Exec(
		query,
		session.ID,
		session.StudentID,
		session.ProviderID,
		session.Skill,
		session.Topic,
		string(session.Status),
		session.ScheduledAt,
		session.DurationMinutes,
		session.HourlyRate,
		session.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %v", err)
	}

	return nil
}

// GetSession gets a session by ID with participant usernames
func (d *Database) GetSession(id string) (*Session, error) {
	query := `SELECT` + sessionColumns + sessionJoins + ` WHERE s.id = ?`

	session, err := scanSession(d.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get session: %v", err)
	}

	return session, nil
}

// ListUserSessions returns sessions the user participates in, newest first,
// optionally filtered by status. Returns the page plus the total count.
func (d *Database) ListUserSessions(userID string, status string, limit, offset int) ([]*Session, int, error) {
	where := "WHERE (s.student_id = ? OR s.provider_id = ?)"
	args := []any{userID, userID}

	if status != "" {
		where += " AND s.status = ?"
		args = append(args, status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM sessions s ` + where
	if err := d.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %v", err)
	}

	listQuery := `SELECT` + sessionColumns + sessionJoins + ` ` + where + `
		ORDER BY s.scheduled_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := d.db.Query(listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %v", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan session: %v", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, total, nil
}

// UpdateSessionStatus transitions a session to a new status. Terminal
// statuses (completed, cancelled) cannot be left.
func (d *Database) UpdateSessionStatus(id string, status types.SessionStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %s", types.ErrInvalidSessionStatus, status)
	}

	session, err := d.GetSession(id)
	if err != nil {
		return err
	}

	if session.Status.IsTerminal() {
		return fmt.Errorf("session is already %s", session.Status)
	}

	query := `UPDATE sessions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := d.db.Exec(query, string(status), id); err != nil {
		return fmt.Errorf("failed to update session status: %v", err)
	}

	return nil
}
