package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbridge/skillbridge_backend/internal/types"
)

func TestCreateAndGetSession(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)
	session := createTestSession(t, db, "session-1", student, provider)

	retrieved, err := db.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, student.ID, retrieved.StudentID)
	assert.Equal(t, provider.ID, retrieved.ProviderID)
	assert.Equal(t, "lena", retrieved.StudentName)
	assert.Equal(t, "tomas", retrieved.ProviderName)
	assert.Equal(t, types.SessionScheduled, retrieved.Status)
	assert.Equal(t, "40", retrieved.Price)
	assert.Equal(t, 60, retrieved.DurationMinutes)
}

func TestGetSessionNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.GetSession("missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSessionHasParticipant(t *testing.T) {
	session := &Session{StudentID: "student-1", ProviderID: "provider-1"}

	assert.True(t, session.HasParticipant("student-1"))
	assert.True(t, session.HasParticipant("provider-1"))
	assert.False(t, session.HasParticipant("stranger"))
}

func TestListUserSessions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)
	other := createTestUser(t, db, "student-2", "kenji", RoleStudent)

	createTestSession(t, db, "session-1", student, provider)
	createTestSession(t, db, "session-2", student, provider)
	createTestSession(t, db, "session-3", other, provider)

	// Student sees only their own sessions
	sessions, total, err := db.ListUserSessions(student.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, sessions, 2)

	// Provider participates in all three
	sessions, total, err = db.ListUserSessions(provider.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, sessions, 3)

	// Pagination returns the total alongside the page
	sessions, total, err = db.ListUserSessions(provider.ID, "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, sessions, 1)
}

func TestListUserSessionsFiltersByStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)

	createTestSession(t, db, "session-1", student, provider)
	done := createTestSession(t, db, "session-2", student, provider)
	require.NoError(t, db.UpdateSessionStatus(done.ID, types.SessionCompleted))

	sessions, total, err := db.ListUserSessions(student.ID, string(types.SessionCompleted), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, sessions, 1)
	assert.Equal(t, done.ID, sessions[0].ID)
}

func TestUpdateSessionStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)
	session := createTestSession(t, db, "session-1", student, provider)

	require.NoError(t, db.UpdateSessionStatus(session.ID, types.SessionInProgress))

	retrieved, err := db.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionInProgress, retrieved.Status)

	require.NoError(t, db.UpdateSessionStatus(session.ID, types.SessionCompleted))
}

func TestUpdateSessionStatusRejectsInvalidStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)
	session := createTestSession(t, db, "session-1", student, provider)

	err := db.UpdateSessionStatus(session.ID, types.SessionStatus("postponed"))
	assert.ErrorIs(t, err, types.ErrInvalidSessionStatus)
}

func TestTerminalSessionCannotTransition(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)

	completed := createTestSession(t, db, "session-1", student, provider)
	require.NoError(t, db.UpdateSessionStatus(completed.ID, types.SessionCompleted))
	err := db.UpdateSessionStatus(completed.ID, types.SessionCancelled)
	assert.EqualError(t, err, "session is already completed")

	cancelled := createTestSession(t, db, "session-2", student, provider)
	require.NoError(t, db.UpdateSessionStatus(cancelled.ID, types.SessionCancelled))
	err = db.UpdateSessionStatus(cancelled.ID, types.SessionInProgress)
	assert.EqualError(t, err, "session is already cancelled")
}

func TestCreateSessionDefaultsToScheduled(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createTestUser(t, db, "student-1", "lena", RoleStudent)
	provider := createTestUser(t, db, "provider-1", "tomas", RoleProvider)

	session := &Session{
		ID:              "session-1",
		StudentID:       student.ID,
		ProviderID:      provider.ID,
		Skill:           "sql",
		ScheduledAt:     time.Now().Add(time.Hour),
		DurationMinutes: 30,
		HourlyRate:      "40",
		Price:           "20",
	}
	require.NoError(t, db.CreateSession(session))
	assert.Equal(t, types.SessionScheduled, session.Status)
}
