package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordStrengthEndpoint(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/password/strength", map[string]any{
		"password": "VeryStrongP4ssw0rd!@#$",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	strength := body["strength"].(map[string]any)
	assert.Equal(t, float64(8), strength["score"])
	assert.Equal(t, "very-strong", strength["level"])

	validation := body["validation"].(map[string]any)
	assert.Equal(t, true, validation["is_valid"])
}

func TestPasswordStrengthEndpointWeakPassword(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/password/strength", map[string]any{
		"password": "password",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	validation := body["validation"].(map[string]any)
	assert.Equal(t, false, validation["is_valid"])
	assert.NotEmpty(t, validation["errors"])
}

func TestPasswordStrengthEndpointRequiresPassword(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/password/strength", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordGenerateEndpointDefaults(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/password/generate", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	generated := body["password"].(string)
	assert.Len(t, generated, 16)

	// Defaults draw from all classes, so the result is always strong
	strength := body["strength"].(map[string]any)
	assert.GreaterOrEqual(t, strength["score"].(float64), float64(6))
}

func TestPasswordGenerateEndpointCustomPolicy(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/password/generate", map[string]any{
		"length": 32,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Len(t, body["password"].(string), 32)
}

func TestPasswordGenerateEndpointRejectsEmptyCharset(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/password/generate", map[string]any{
		"length":                12,
		"include_lowercase":     false,
		"include_uppercase":     false,
		"include_numbers":       false,
		"include_special_chars": false,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordGenerateEndpointRejectsNegativeLength(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := performRequest(server, http.MethodPost, "/api/password/generate", map[string]any{
		"length": -5,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
