package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"interhub/internal/config"
	"interhub/internal/database"
	"interhub/internal/server"
	"interhub/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// authUser is a signed-up account with a live session token.
type authUser struct {
	ID    uint
	Token string
}

var (
	appOnce   sync.Once
	sharedApp *fiber.App
	appErr    error
)

// newInterhubTestApp builds the full API wired to an in-memory SQLite database
// and in-memory object storage. The server is built once per package because
// metrics registration is process-global.
func newInterhubTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	appOnce.Do(buildSharedApp)
	if appErr != nil {
		t.Fatalf("build test app: %v", appErr)
	}
	return sharedApp
}

func buildSharedApp() {
	cfg := &config.Config{
		Port:      "0",
		Env:       "test",
		JWTSecret: "interhub-e2e-secret",
	}

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		appErr = fmt.Errorf("open sqlite: %w", err)
		return
	}
	if appErr = database.Migrate(db); appErr != nil {
		return
	}

	srv, err := server.NewServerWithDeps(cfg, db, nil, storage.NewMemoryBuckets())
	if err != nil {
		appErr = fmt.Errorf("new server: %w", err)
		return
	}

	app := fiber.New()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)
	sharedApp = app
}

// signupInterhubUser registers a fresh account through the real signup
// endpoint and returns its token. Uniqueness comes from the uuid handle and
// nanosecond email suffix, so tests can share one database.
func signupInterhubUser(t *testing.T, app *fiber.App, prefix string) authUser {
	t.Helper()

	creds := map[string]string{
		"username": "u" + uuid.NewString()[:10],
		"email":    fmt.Sprintf("%s_%d@dkit.ie", prefix, time.Now().UnixNano()),
		"password": "TestPass123!@#",
	}

	resp, err := app.Test(jsonReq(t, http.MethodPost, "/api/auth/signup", creds), -1)
	if err != nil {
		t.Fatalf("signup request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup returned %d, want 201", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decodeJSON(t, resp, &body)
	if body.Token == "" || body.User.ID == 0 {
		t.Fatalf("signup response missing token or user ID: %+v", body)
	}
	return authUser{ID: body.User.ID, Token: body.Token}
}

func jsonReq(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	if payload == nil {
		return httptest.NewRequest(method, path, nil)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authReq(t *testing.T, method, path, token string, payload any) *http.Request {
	t.Helper()
	req := jsonReq(t, method, path, payload)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func uniqueRoomName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
