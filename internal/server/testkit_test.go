package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kolboard/internal/cache"
	"kolboard/internal/config"
	"kolboard/internal/models"
	"kolboard/internal/testutil"
	"kolboard/internal/upstream"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	app      *fiber.App
	server   *Server
	db       *gorm.DB
	store    *testutil.StorageStub
	upstream *http.ServeMux
}

// newTestEnv wires a Server over in-memory SQLite, miniredis, a stub object
// store and an httptest upstream whose routes each test registers on env.upstream.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	mux := http.NewServeMux()
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	cfg := &config.Config{
		JWTSecret:           testSecret,
		Env:                 "test",
		AllowedOrigins:      "http://localhost:3000",
		AvatarMaxBytes:      2 * 1024 * 1024,
		AvatarOutputSize:    64,
		AvatarJPEGQuality:   90,
		UpstreamTimeout:     5 * time.Second,
		UpstreamFanoutLimit: 4,
	}
	db := testutil.NewTestDB(t)
	store := testutil.NewStorageStub()

	srv, err := NewServerWithDeps(cfg, Deps{
		DB:       db,
		Redis:    rdb,
		Upstream: upstream.New(upstream.Config{BaseURL: backend.URL, Timeout: 5 * time.Second}),
		Storage:  store,
	})
	require.NoError(t, err)

	return &testEnv{
		app:      srv.NewApp(),
		server:   srv,
		db:       db,
		store:    store,
		upstream: mux,
	}
}

// token signs an access token the way the managed auth service does.
func token(t *testing.T, userID uuid.UUID, username string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID.String(),
		"exp":      time.Now().Add(time.Hour).Unix(),
		"username": username,
		"email":    username + "@example.com",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID:             uuid.New(),
		Username:       username,
		DisplayName:    username,
		Theme:          models.ThemeSystem,
		MembershipTier: models.TierFree,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) do(t *testing.T, req *http.Request, bearer string) *http.Response {
	t.Helper()
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
