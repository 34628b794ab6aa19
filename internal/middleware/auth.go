// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"errors"
	"strings"

	"kolboard/internal/config"
	"kolboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Fiber locals set by the auth middleware.
const (
	LocalUserID   = "userID"
	LocalUsername = "username"
	LocalEmail    = "email"
)

// AuthRedirect is where the dashboard sends unauthenticated users.
const AuthRedirect = "/auth"

var cfg *config.Config

var (
	errMissingToken = errors.New("authorization header required")
	errBadFormat    = errors.New("invalid authorization header format")
	errBadToken     = errors.New("invalid or expired token")
	errBadSubject   = errors.New("invalid token subject")
)

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// Claims are the fields read from access tokens issued by the managed auth service.
type Claims struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

// ParseToken validates an HS256 access token and extracts its claims.
func ParseToken(tokenString string) (*Claims, error) {
	if cfg == nil || cfg.JWTSecret == "" {
		return nil, errors.New("auth middleware not initialized")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !token.Valid {
		return nil, errBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errBadToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errBadSubject
	}
	userID, err := uuid.Parse(sub)
	if err != nil || userID == uuid.Nil {
		return nil, errBadSubject
	}

	out := &Claims{UserID: userID}
	for _, key := range []string{"username", "preferred_username", "user_name"} {
		if v, ok := claims[key].(string); ok && v != "" {
			out.Username = v
			break
		}
	}
	if meta, ok := claims["user_metadata"].(map[string]any); ok && out.Username == "" {
		if v, ok := meta["username"].(string); ok {
			out.Username = v
		}
	}
	if v, ok := claims["email"].(string); ok {
		out.Email = v
	}
	return out, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errBadFormat
	}
	return strings.TrimSpace(parts[1]), nil
}

func authenticate(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return err
	}
	claims, err := ParseToken(tokenString)
	if err != nil {
		return err
	}

	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalUsername, claims.Username)
	c.Locals(LocalEmail, claims.Email)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
	return nil
}

// AuthRequired enforces authentication. Failures answer 401 with the
// AUTH_REQUIRED code and the redirect target so clients can send the user to sign in.
func AuthRequired(c *fiber.Ctx) error {
	if err := authenticate(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":    err.Error(),
			"code":     models.CodeAuthRequired,
			"redirect": AuthRedirect,
		})
	}
	return c.Next()
}

// OptionalAuth sets the user when a valid token is present and otherwise
// continues anonymously.
func OptionalAuth(c *fiber.Ctx) error {
	if err := authenticate(c); err != nil && !errors.Is(err, errMissingToken) {
		Logger.DebugContext(c.UserContext(), "ignoring invalid credentials on public route")
	}
	return c.Next()
}

// UserID returns the authenticated user id, if any.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(LocalUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// ViewerID returns a pointer to the authenticated user id or nil when anonymous.
func ViewerID(c *fiber.Ctx) *uuid.UUID {
	if id, ok := UserID(c); ok {
		return &id
	}
	return nil
}
