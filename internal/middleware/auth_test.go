package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kolboard/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func userToken(t *testing.T, sub string, exp time.Duration) string {
	return signToken(t, jwt.MapClaims{
		"sub":      sub,
		"exp":      time.Now().Add(exp).Unix(),
		"username": "alice",
		"email":    "alice@example.com",
	})
}

func TestAuthRequired(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})
	app := fiber.New()
	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error {
		id, _ := UserID(c)
		return c.JSON(fiber.Map{"user_id": id.String(), "username": c.Locals(LocalUsername)})
	})

	userID := uuid.New()
	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{name: "Happy Path", authHeader: "Bearer " + userToken(t, userID.String(), time.Hour), expectedStatus: http.StatusOK},
		{name: "Lowercase scheme", authHeader: "bearer " + userToken(t, userID.String(), time.Hour), expectedStatus: http.StatusOK},
		{name: "Missing Header", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid Format", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "Malformed Token", authHeader: "Bearer malformed.token.here", expectedStatus: http.StatusUnauthorized},
		{name: "Expired Token", authHeader: "Bearer " + userToken(t, userID.String(), -time.Hour), expectedStatus: http.StatusUnauthorized},
		{name: "Non-UUID Subject", authHeader: "Bearer " + userToken(t, "123", time.Hour), expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, userID.String(), body["user_id"])
				assert.Equal(t, "alice", body["username"])
			} else {
				assert.Equal(t, "AUTH_REQUIRED", body["code"])
				assert.Equal(t, "/auth", body["redirect"])
			}
		})
	}
}

func TestAuthRequired_RejectsOtherSecret(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})
	app := fiber.New()
	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another-secret-another-secret-another"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOptionalAuth(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})
	app := fiber.New()
	app.Get("/public", OptionalAuth, func(c *fiber.Ctx) error {
		if viewer := ViewerID(c); viewer != nil {
			return c.SendString(viewer.String())
		}
		return c.SendString("anonymous")
	})

	call := func(header string) string {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		buf := make([]byte, 64)
		n, _ := resp.Body.Read(buf)
		return string(buf[:n])
	}

	userID := uuid.New()
	assert.Equal(t, userID.String(), call("Bearer "+userToken(t, userID.String(), time.Hour)))
	assert.Equal(t, "anonymous", call(""))
	assert.Equal(t, "anonymous", call("Bearer garbage"))
}

func TestParseToken_UsernameFromMetadata(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})
	id := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":           id.String(),
		"exp":           time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{"username": "bob"},
	})

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "bob", claims.Username)
}
