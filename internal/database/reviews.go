package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Review represents a student's review of a completed session
type Review struct {
	ID           int       `json:"id"`
	SessionID    string    `json:"session_id"`
	ReviewerID   string    `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	ProviderID   string    `json:"provider_id"`
	Rating       int       `json:"rating"` // 1-5
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProviderRating aggregates a provider's review scores
type ProviderRating struct {
	ProviderID    string  `json:"provider_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// SaveReview saves a review. Each session can be reviewed once; duplicates
// hit the unique constraint on session_id.
func (d *Database) SaveReview(review *Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}

	query := `
		INSERT INTO reviews (session_id, reviewer_id, provider_id, rating, comment)
		VALUES (?, ?, ?, ?, ?)`

	result, err := d.db.Exec(
		query,
		review.SessionID,
		review.ReviewerID,
		review.ProviderID,
		review.Rating,
		review.Comment,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("session has already been reviewed")
		}
		return fmt.Errorf("failed to save review: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}

	review.ID = int(id)
	return nil
}

// GetReview gets a review by ID
func (d *Database) GetReview(id int) (*Review, error) {
	query := `
		SELECT r.id, r.session_id, r.reviewer_id, u.username, r.provider_id,
			   r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.reviewer_id
		WHERE r.id = ?`

	var review Review
	err := d.db.QueryRow(query, id).Scan(
		&review.ID,
		&review.SessionID,
		&review.ReviewerID,
		&review.ReviewerName,
		&review.ProviderID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("review not found")
		}
		return nil, fmt.Errorf("failed to get review: %v", err)
	}

	return &review, nil
}

// GetProviderReviews returns a page of a provider's reviews, newest first,
// plus the total count
func (d *Database) GetProviderReviews(providerID string, limit, offset int) ([]*Review, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM reviews WHERE provider_id = ?`
	if err := d.db.QueryRow(countQuery, providerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %v", err)
	}

	query := `
		SELECT r.id, r.session_id, r.reviewer_id, u.username, r.provider_id,
			   r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.reviewer_id
		WHERE r.provider_id = ?
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?`

	rows, err := d.db.Query(query, providerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query reviews: %v", err)
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		var review Review
		err := rows.Scan(
			&review.ID,
			&review.SessionID,
			&review.ReviewerID,
			&review.ReviewerName,
			&review.ProviderID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %v", err)
		}
		reviews = append(reviews, &review)
	}

	return reviews, total, nil
}

// GetProviderRating returns a provider's average rating and review count
func (d *Database) GetProviderRating(providerID string) (*ProviderRating, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE provider_id = ?`

	rating := &ProviderRating{ProviderID: providerID}
	err := d.db.QueryRow(query, providerID).Scan(&rating.AverageRating, &rating.ReviewCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider rating: %v", err)
	}

	return rating, nil
}

// DeleteReview deletes a review owned by the reviewer
func (d *Database) DeleteReview(id int, reviewerID string) error {
	result, err := d.db.Exec(`DELETE FROM reviews WHERE id = ? AND reviewer_id = ?`, id, reviewerID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %v", err)
	}
	if affected == 0 {
		return fmt.Errorf("review not found or not owned by user")
	}

	return nil
}
