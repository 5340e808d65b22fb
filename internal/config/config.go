// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	// S3-compatible object storage holding profile, room, and content images.
	StorageEndpoint     string `mapstructure:"STORAGE_ENDPOINT"`
	StorageAccessKey    string `mapstructure:"STORAGE_ACCESS_KEY"`
	StorageSecretKey    string `mapstructure:"STORAGE_SECRET_KEY"`
	StorageUseSSL       bool   `mapstructure:"STORAGE_USE_SSL"`
	ProfileImagesBucket string `mapstructure:"PROFILE_IMAGES_BUCKET"`
	RoomImagesBucket    string `mapstructure:"ROOM_IMAGES_BUCKET"`
	ContentImagesBucket string `mapstructure:"CONTENT_IMAGES_BUCKET"`

	// External identity providers (authorization-code flow).
	OAuthRedirectBase    string `mapstructure:"OAUTH_REDIRECT_BASE"`
	GoogleClientID       string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	OutlookClientID      string `mapstructure:"OUTLOOK_CLIENT_ID"`
	OutlookClientSecret  string `mapstructure:"OUTLOOK_CLIENT_SECRET"`
	FacebookClientID     string `mapstructure:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `mapstructure:"FACEBOOK_CLIENT_SECRET"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

const placeholderJWTSecret = "your-secret-key-change-in-production"

var defaults = map[string]any{
	"PORT":                  "8460",
	"APP_ENV":               "development",
	"JWT_SECRET":            placeholderJWTSecret,
	"ALLOWED_ORIGINS":       "http://localhost:5173,http://localhost:3000",
	"DB_HOST":               "localhost",
	"DB_PORT":               "5432",
	"DB_USER":               "user",
	"DB_PASSWORD":           "password",
	"DB_NAME":               "interhub",
	"DB_SSLMODE":            "disable",
	"REDIS_URL":             "localhost:6379",
	"STORAGE_ENDPOINT":      "localhost:9000",
	"STORAGE_ACCESS_KEY":    "minioadmin",
	"STORAGE_SECRET_KEY":    "minioadmin",
	"STORAGE_USE_SSL":       false,
	"PROFILE_IMAGES_BUCKET": "interhub-profile-images",
	"ROOM_IMAGES_BUCKET":    "interhub-room-images",
	"CONTENT_IMAGES_BUCKET": "interhub-content-images",
	"OAUTH_REDIRECT_BASE":   "http://localhost:8460",
	"TRACING_ENABLED":       false,
	"TRACING_EXPORTER":      "stdout",
	"OTLP_ENDPOINT":         "localhost:4318",
	"TRACING_SAMPLER_RATIO": 1.0,
}

// LoadConfig reads config.yml (optional), an env-specific overlay such as
// config.production.yml (optional), and finally environment variables.
// Later sources win.
func LoadConfig() (*Config, error) {
	v := viper.New()
	for _, dir := range []string{".", "..", "../.."} {
		v.AddConfigPath(dir)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// Running on env vars alone is supported, so a missing base file is fine.
	_ = v.ReadInConfig()

	if env := v.GetString("APP_ENV"); env != "" && env != "development" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to merge profile config 'config.%s.yml': %w", env, err)
			}
		} else {
			slog.Info("loaded profile configuration", slog.String("profile", env))
		}
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that required values are present. In production it also
// rejects placeholder credentials.
func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return errors.New("PORT is required")
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.ProfileImagesBucket == "" || c.RoomImagesBucket == "" || c.ContentImagesBucket == "":
		return errors.New("all three image bucket names are required")
	}

	if !c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			slog.Warn("JWT_SECRET is shorter than 32 characters, use a stronger secret outside development")
		}
		return nil
	}

	if c.JWTSecret == placeholderJWTSecret {
		return errors.New("JWT_SECRET must be changed from the default value in production")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	if c.DBPassword == "password" || c.DBPassword == "" {
		return errors.New("a strong DB_PASSWORD is required in production")
	}
	if c.StorageSecretKey == "minioadmin" || c.StorageSecretKey == "" {
		return errors.New("STORAGE_SECRET_KEY must be changed from the default value in production")
	}
	if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
		slog.Warn("DB_SSLMODE is 'disable' in production, database traffic is unencrypted")
	}
	if c.AllowedOrigins == "*" {
		slog.Warn("ALLOWED_ORIGINS is '*' in production, any site can call the API")
	}
	return nil
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
