package database

import (
	"fmt"
	"time"
)

// Message represents a persisted chat message within a session
type Message struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveMessage persists a chat message and returns it with its assigned ID
func (d *Database) SaveMessage(sessionID, senderID, content string) (*Message, error) {
	now := time.Now().UTC()

	query := `INSERT INTO messages (session_id, sender_id, content, created_at) VALUES (?, ?, ?, ?)`
	result, err := d.db.Exec(query, sessionID, senderID, content, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %v", err)
	}

	return &Message{
		ID:        id,
		SessionID: sessionID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: now,
	}, nil
}

// GetSessionMessages returns a page of a session's chat history in
// chronological order, plus the total message count
func (d *Database) GetSessionMessages(sessionID string, limit, offset int) ([]*Message, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM messages WHERE session_id = ?`
	if err := d.db.QueryRow(countQuery, sessionID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %v", err)
	}

	query := `
		SELECT m.id, m.session_id, m.sender_id, u.username, m.content, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.session_id = ?
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT ? OFFSET ?`

	rows, err := d.db.Query(query, sessionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query messages: %v", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		err := rows.Scan(&msg.ID, &msg.SessionID, &msg.SenderID, &msg.SenderName, &msg.Content, &msg.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan message: %v", err)
		}
		messages = append(messages, &msg)
	}

	return messages, total, nil
}
