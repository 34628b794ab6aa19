package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		DBPassword:          "secure-password",
		DBSSLMode:           "require",
		Port:                "8080",
		BackendAPIURL:       "http://backend:8000",
		StorageBucket:       "user-uploads",
		AvatarMaxBytes:      2 * 1024 * 1024,
		AvatarJPEGQuality:   95,
		UpstreamTimeout:     10 * time.Second,
		RedisURL:            "redis://localhost:6379",
		TracingSamplerRatio: 1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DatabaseURLSkipsComponentChecks(t *testing.T) {
	c := validConfig()
	c.Env = "production"
	c.DBPassword = ""
	c.DBSSLMode = ""
	require.Error(t, c.Validate())

	c.DatabaseURL = "postgres://app:secret@db:5432/kolboard?sslmode=require"
	assert.NoError(t, c.Validate())
}

func TestConfig_ValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing upstream", func(c *Config) { c.BackendAPIURL = ""; c.PublicBackendAPIURL = "" }},
		{"missing bucket", func(c *Config) { c.StorageBucket = "" }},
		{"zero avatar limit", func(c *Config) { c.AvatarMaxBytes = 0 }},
		{"bad jpeg quality", func(c *Config) { c.AvatarJPEGQuality = 101 }},
		{"zero timeout", func(c *Config) { c.UpstreamTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_UpstreamBaseURLFallback(t *testing.T) {
	c := validConfig()
	c.BackendAPIURL = ""
	c.PublicBackendAPIURL = "http://public:9000"
	assert.Equal(t, "http://public:9000", c.UpstreamBaseURL())

	c.BackendAPIURL = "http://private:8000"
	assert.Equal(t, "http://private:8000", c.UpstreamBaseURL())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("BACKEND_API_URL", "http://backend:8000/")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "http://backend:8000", c.UpstreamBaseURL())
	assert.Equal(t, "user-uploads", c.StorageBucket)
	assert.Equal(t, int64(2*1024*1024), c.AvatarMaxBytes)
	assert.Equal(t, 4096*4096, c.AvatarMaxPixels)
	assert.Equal(t, 10*time.Second, c.UpstreamTimeout)
}
