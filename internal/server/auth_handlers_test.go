package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterHandler(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "mariko",
		"email":    "mariko@example.com",
		"password": "Va1id#TestPass",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "mariko", user["username"])
	assert.Equal(t, "student", user["role"])
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "mariko",
		"email":    "mariko@example.com",
		"password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Password is too weak", body["error"])

	// All policy violations are reported, not just the first
	details := body["details"].([]any)
	assert.GreaterOrEqual(t, len(details), 3)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registerTestUser(t, server, "mariko", "student")

	w := performRequest(server, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "mariko",
		"email":    "other@example.com",
		"password": "Va1id#TestPass",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists")

	w = performRequest(server, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "someone",
		"email":    "mariko@example.com",
		"password": "Va1id#TestPass",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Email already exists")
}

func TestRegisterProviderIncludesRate(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/auth/register", map[string]any{
		"username":     "tomas",
		"email":        "tomas@example.com",
		"password":     "Va1id#TestPass",
		"role":         "provider",
		"skills":       []string{"go", "sql"},
		"hourly_rate":  "45.50",
		"display_name": "Tomas K.",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	user := body["user"].(map[string]any)
	assert.Equal(t, "provider", user["role"])
	assert.Equal(t, "45.5", user["hourly_rate"])
}

func TestRegisterProviderSkillLevel(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/auth/register", map[string]any{
		"username":    "tomas",
		"email":       "tomas@example.com",
		"password":    "Va1id#TestPass",
		"role":        "provider",
		"skills":      []string{"go"},
		"hourly_rate": "40",
		"skill_level": "expert",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	user := body["user"].(map[string]any)
	assert.Equal(t, "expert", user["skill_level"])

	// The level shows on the public profile too
	w = performRequest(server, http.MethodGet, "/api/users/"+user["id"].(string), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	profile := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, "expert", profile["skill_level"])
}

func TestRegisterRejectsInvalidSkillLevel(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/auth/register", map[string]any{
		"username":    "tomas",
		"email":       "tomas@example.com",
		"password":    "Va1id#TestPass",
		"role":        "provider",
		"skill_level": "grandmaster",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid skill level")
}

func TestRegisterRejectsInvalidHourlyRate(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/auth/register", map[string]any{
		"username":    "tomas",
		"email":       "tomas@example.com",
		"password":    "Va1id#TestPass",
		"role":        "provider",
		"hourly_rate": "-10",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid hourly rate")
}

func TestLoginHandler(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registerTestUser(t, server, "mariko", "student")

	w := performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "mariko",
		"password": "Va1id#TestPass",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registerTestUser(t, server, "mariko", "student")

	w := performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "mariko",
		"password": "Wr0ng#Password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")
}

func TestLoginLocksAccountAfterRepeatedFailures(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registerTestUser(t, server, "mariko", "student")

	for i := 0; i < 5; i++ {
		performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
			"username": "mariko",
			"password": "Wr0ng#Password",
		}, "")
	}

	w := performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "mariko",
		"password": "Va1id#TestPass",
	}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "locked")
}

func TestMeHandler(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token, userID := registerTestUser(t, server, "mariko", "student")

	w := performRequest(server, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	user := body["user"].(map[string]any)
	assert.Equal(t, userID, user["id"])

	// Without a token
	w = performRequest(server, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateUserHandler(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token, _ := registerTestUser(t, server, "tomas", "provider")

	w := performRequest(server, http.MethodPut, "/api/auth/me", map[string]any{
		"bio":         "Ten years of Go.",
		"hourly_rate": "55",
		"skill_level": "advanced",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Ten years of Go.", user["bio"])
	assert.Equal(t, "55", user["hourly_rate"])
	assert.Equal(t, "advanced", user["skill_level"])

	// An unknown level is rejected
	w = performRequest(server, http.MethodPut, "/api/auth/me", map[string]any{
		"skill_level": "grandmaster",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangePasswordHandler(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token, _ := registerTestUser(t, server, "mariko", "student")

	// Wrong current password
	w := performRequest(server, http.MethodPost, "/api/auth/change-password", map[string]any{
		"current_password": "Wr0ng#Password",
		"new_password":     "N3w#ValidPass",
	}, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Weak new password
	w = performRequest(server, http.MethodPost, "/api/auth/change-password", map[string]any{
		"current_password": "Va1id#TestPass",
		"new_password":     "weak",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Valid change
	w = performRequest(server, http.MethodPost, "/api/auth/change-password", map[string]any{
		"current_password": "Va1id#TestPass",
		"new_password":     "N3w#ValidPass",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Old password no longer works
	w = performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "mariko",
		"password": "Va1id#TestPass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEmailVerificationFlagGatesLogin(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	flags := server.featureFlags.GetFlags()
	flags.RequireEmailVerification = true
	require.NoError(t, server.featureFlags.UpdateFlags(flags))

	w := performRequest(server, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "mariko",
		"email":    "mariko@example.com",
		"password": "Va1id#TestPass",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, true, body["verification_required"])
	refreshToken := body["refresh_token"].(string)

	// Unverified users can neither log in nor refresh
	w = performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "mariko",
		"password": "Va1id#TestPass",
	}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "verified")

	w = performRequest(server, http.MethodPost, "/api/auth/refresh", map[string]any{
		"refresh_token": refreshToken,
	}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Development mode exposes the token; verifying unlocks login
	verificationToken := body["verification_token"].(string)
	w = performRequest(server, http.MethodGet, "/api/auth/verify-email?token="+verificationToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "mariko",
		"password": "Va1id#TestPass",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRefreshTokenHandler(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registerTestUser(t, server, "mariko", "student")

	w := performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "mariko",
		"password": "Va1id#TestPass",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	refreshToken := decodeBody(t, w)["refresh_token"].(string)

	w = performRequest(server, http.MethodPost, "/api/auth/refresh", map[string]any{
		"refresh_token": refreshToken,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	newRefresh := body["refresh_token"].(string)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEqual(t, refreshToken, newRefresh)

	// The old refresh token was rotated out
	w = performRequest(server, http.MethodPost, "/api/auth/refresh", map[string]any{
		"refresh_token": refreshToken,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordResetFlowViaAPI(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registerTestUser(t, server, "mariko", "student")

	// Unknown emails get the same response
	w := performRequest(server, http.MethodPost, "/api/auth/forgot-password", map[string]any{
		"email": "unknown@example.com",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(server, http.MethodPost, "/api/auth/forgot-password", map[string]any{
		"email": "mariko@example.com",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	// Development mode exposes the token for testing
	resetToken := decodeBody(t, w)["reset_token"].(string)
	require.NotEmpty(t, resetToken)

	w = performRequest(server, http.MethodPost, "/api/auth/reset-password", map[string]any{
		"token":        resetToken,
		"new_password": "N3w#ValidPass",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "mariko",
		"password": "N3w#ValidPass",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResetPasswordRejectsWeakPassword(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/auth/reset-password", map[string]any{
		"token":        "whatever",
		"new_password": "weak",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Password is too weak")
}

func TestDeleteUserHandler(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token, _ := registerTestUser(t, server, "mariko", "student")

	w := performRequest(server, http.MethodDelete, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	// Login no longer possible
	w = performRequest(server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "mariko",
		"password": "Va1id#TestPass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
