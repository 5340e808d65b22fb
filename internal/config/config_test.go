package config

import (
	"strings"
	"testing"
)

func validTestConfig() *Config {
	return &Config{
		Port:                "8460",
		Env:                 "test",
		JWTSecret:           "a-test-secret-that-is-long-enough-123",
		DBPassword:          "password",
		StorageSecretKey:    "minioadmin",
		ProfileImagesBucket: "interhub-profile-images",
		RoomImagesBucket:    "interhub-room-images",
		ContentImagesBucket: "interhub-content-images",
	}
}

func TestValidate(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidateMissingPort(t *testing.T) {
	cfg := validTestConfig()
	cfg.Port = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing PORT")
	}
}

func TestValidateMissingBuckets(t *testing.T) {
	cfg := validTestConfig()
	cfg.ContentImagesBucket = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing bucket name")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateProductionRejectsDefaults(t *testing.T) {
	cfg := validTestConfig()
	cfg.Env = "production"
	cfg.JWTSecret = "your-secret-key-change-in-production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default JWT secret in production")
	}

	cfg = validTestConfig()
	cfg.Env = "production"
	cfg.JWTSecret = strings.Repeat("s", 40)
	cfg.DBPassword = "strong-db-password-1"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default storage secret in production")
	}

	cfg.StorageSecretKey = "strong-storage-secret-1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid production config, got: %v", err)
	}
}
