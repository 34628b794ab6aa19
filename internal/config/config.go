// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBReadHost     string `mapstructure:"DB_READ_HOST"`
	DBReadPort     string `mapstructure:"DB_READ_PORT"`
	DBReadUser     string `mapstructure:"DB_READ_USER"`
	DBReadPassword string `mapstructure:"DB_READ_PASSWORD"`
	DBAutoMigrate  bool   `mapstructure:"DB_AUTO_MIGRATE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`
	Env            string `mapstructure:"APP_ENV"`

	// Upstream backend that owns KOL, tweet, stock and brokerage data.
	BackendAPIURL        string        `mapstructure:"BACKEND_API_URL"`
	PublicBackendAPIURL  string        `mapstructure:"NEXT_PUBLIC_BACKEND_API_URL"`
	UpstreamTimeout      time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	UpstreamRPS          float64       `mapstructure:"UPSTREAM_RPS"`
	UpstreamBurst        int           `mapstructure:"UPSTREAM_BURST"`
	UpstreamFanoutLimit  int           `mapstructure:"UPSTREAM_FANOUT_LIMIT"`
	ProfileCardCacheTTL  time.Duration `mapstructure:"PROFILE_CARD_CACHE_TTL"`
	QuoteCacheTTL        time.Duration `mapstructure:"QUOTE_CACHE_TTL"`
	PriceRefreshCron     string        `mapstructure:"PRICE_REFRESH_CRON"`
	PriceRefreshDisabled bool          `mapstructure:"PRICE_REFRESH_DISABLED"`

	// Object storage for avatars.
	StorageEndpoint   string `mapstructure:"STORAGE_ENDPOINT"`
	StorageRegion     string `mapstructure:"STORAGE_REGION"`
	StorageBucket     string `mapstructure:"STORAGE_BUCKET"`
	StorageAccessKey  string `mapstructure:"STORAGE_ACCESS_KEY"`
	StorageSecretKey  string `mapstructure:"STORAGE_SECRET_KEY"`
	StoragePublicURL  string `mapstructure:"STORAGE_PUBLIC_URL"`
	StoragePathStyle  bool   `mapstructure:"STORAGE_USE_PATH_STYLE"`
	AvatarMaxBytes    int64  `mapstructure:"AVATAR_MAX_BYTES"`
	AvatarOutputSize  int    `mapstructure:"AVATAR_OUTPUT_SIZE"`
	AvatarJPEGQuality int    `mapstructure:"AVATAR_JPEG_QUALITY"`
	AvatarMaxPixels   int    `mapstructure:"AVATAR_MAX_PIXELS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env vars and defaults are enough to boot.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "kolboard")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("FEATURE_FLAGS", "")

	viper.SetDefault("BACKEND_API_URL", "")
	viper.SetDefault("NEXT_PUBLIC_BACKEND_API_URL", "http://localhost:8000")
	viper.SetDefault("UPSTREAM_TIMEOUT", "10s")
	viper.SetDefault("UPSTREAM_RPS", 20.0)
	viper.SetDefault("UPSTREAM_BURST", 40)
	viper.SetDefault("UPSTREAM_FANOUT_LIMIT", 8)
	viper.SetDefault("PROFILE_CARD_CACHE_TTL", "5m")
	viper.SetDefault("QUOTE_CACHE_TTL", "5m")
	viper.SetDefault("PRICE_REFRESH_CRON", "@every 5m")
	viper.SetDefault("PRICE_REFRESH_DISABLED", false)

	viper.SetDefault("STORAGE_ENDPOINT", "")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_BUCKET", "user-uploads")
	viper.SetDefault("STORAGE_ACCESS_KEY", "")
	viper.SetDefault("STORAGE_SECRET_KEY", "")
	viper.SetDefault("STORAGE_PUBLIC_URL", "")
	viper.SetDefault("STORAGE_USE_PATH_STYLE", true)
	viper.SetDefault("AVATAR_MAX_BYTES", 2*1024*1024)
	viper.SetDefault("AVATAR_OUTPUT_SIZE", 512)
	viper.SetDefault("AVATAR_JPEG_QUALITY", 95)
	viper.SetDefault("AVATAR_MAX_PIXELS", 4096*4096)

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.BackendAPIURL = strings.TrimRight(strings.TrimSpace(c.BackendAPIURL), "/")
	c.PublicBackendAPIURL = strings.TrimRight(strings.TrimSpace(c.PublicBackendAPIURL), "/")
}

// UpstreamBaseURL returns BACKEND_API_URL, falling back to NEXT_PUBLIC_BACKEND_API_URL.
func (c *Config) UpstreamBaseURL() string {
	if c.BackendAPIURL != "" {
		return c.BackendAPIURL
	}
	return c.PublicBackendAPIURL
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.UpstreamBaseURL() == "" {
		return errors.New("BACKEND_API_URL or NEXT_PUBLIC_BACKEND_API_URL is required")
	}
	if c.StorageBucket == "" {
		return errors.New("STORAGE_BUCKET is required")
	}
	if c.AvatarMaxBytes <= 0 {
		return errors.New("AVATAR_MAX_BYTES must be positive")
	}
	if c.AvatarJPEGQuality < 1 || c.AvatarJPEGQuality > 100 {
		return errors.New("AVATAR_JPEG_QUALITY must be between 1 and 100")
	}
	if c.UpstreamTimeout <= 0 {
		return errors.New("UPSTREAM_TIMEOUT must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DatabaseURL == "" {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must enable TLS in production")
			}
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
