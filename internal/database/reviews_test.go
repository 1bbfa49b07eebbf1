package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbridge/skillbridge_backend/internal/types"
)

func completedSession(t *testing.T, db *Database, id string, student, provider *User) *Session {
	session := createTestSession(t, db, id, student, provider)
	require.NoError(t, db.UpdateSessionStatus(session.ID, types.SessionCompleted))
	return session
}

func TestSaveAndGetReview(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)
	session := completedSession(t, db, "session-1", student, provider)

	review := &Review{
		SessionID:  session.ID,
		ReviewerID: student.ID,
		ProviderID: provider.ID,
		Rating:     4,
		Comment:    "clear explanations, would book again",
	}
	require.NoError(t, db.SaveReview(review))
	assert.NotZero(t, review.ID)

	retrieved, err := db.GetReview(review.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.SessionID)
	assert.Equal(t, "lena", retrieved.ReviewerName)
	assert.Equal(t, 4, retrieved.Rating)
	assert.Equal(t, "clear explanations, would book again", retrieved.Comment)
}

func TestSaveReviewValidatesRating(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, rating := range []int{0, -1, 6} {
		err := db.SaveReview(&Review{
			SessionID:  "session-1",
			ReviewerID: "student-1",
			ProviderID: "provider-1",
			Rating:     rating,
		})
		assert.EqualError(t, err, "rating must be between 1 and 5")
	}
}

func TestDuplicateReviewRejected(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)
	session := completedSession(t, db, "session-1", student, provider)

	review := &Review{
		SessionID:  session.ID,
		ReviewerID: student.ID,
		ProviderID: provider.ID,
		Rating:     5,
	}
	require.NoError(t, db.SaveReview(review))

	err := db.SaveReview(&Review{
		SessionID:  session.ID,
		ReviewerID: student.ID,
		ProviderID: provider.ID,
		Rating:     2,
	})
	assert.EqualError(t, err, "session has already been reviewed")
}

func TestGetProviderReviewsPagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)

	for i := 0; i < 4; i++ {
		student := createTestUser(t, db, fmt.Sprintf("student-%d", i), fmt.Sprintf("student%d", i), RoleStudent)
		session := completedSession(t, db, fmt.Sprintf("session-%d", i), student, provider)
		require.NoError(t, db.SaveReview(&Review{
			SessionID:  session.ID,
			ReviewerID: student.ID,
			ProviderID: provider.ID,
			Rating:     i + 2,
		}))
	}

	reviews, total, err := db.GetProviderReviews(provider.ID, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, reviews, 3)

	reviews, total, err = db.GetProviderReviews(provider.ID, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, reviews, 1)
}

func TestGetProviderRating(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)

	// No reviews yet: zero average, zero count
	rating, err := db.GetProviderRating(provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rating.AverageRating)
	assert.Equal(t, 0, rating.ReviewCount)

	ratings := []int{3, 5, 4}
	for i, r := range ratings {
		student := createTestUser(t, db, fmt.Sprintf("student-%d", i), fmt.Sprintf("student%d", i), RoleStudent)
		session := completedSession(t, db, fmt.Sprintf("session-%d", i), student, provider)
		require.NoError(t, db.SaveReview(&Review{
			SessionID:  session.ID,
			ReviewerID: student.ID,
			ProviderID: provider.ID,
			Rating:     r,
		}))
	}

	rating, err = db.GetProviderRating(provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, rating.ReviewCount)
	assert.InDelta(t, 4.0, rating.AverageRating, 0.001)
}

func TestDeleteReview(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)
	session := completedSession(t, db, "session-1", student, provider)

	review := &Review{
		SessionID:  session.ID,
		ReviewerID: student.ID,
		ProviderID: provider.ID,
		Rating:     5,
	}
	require.NoError(t, db.SaveReview(review))

	// Only the reviewer can delete their review
	err := db.DeleteReview(review.ID, provider.ID)
	assert.EqualError(t, err, "review not found or not owned by user")

	require.NoError(t, db.DeleteReview(review.ID, student.ID))

	_, err = db.GetReview(review.ID)
	assert.Error(t, err)
}
