package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"interhub/internal/auth"
	"interhub/internal/config"
	"interhub/internal/models"
	"interhub/internal/repository"
	"interhub/internal/service"
	"interhub/internal/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// userIDHeader lets tests act as different users without minting tokens.
const userIDHeader = "X-Test-User"

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.RoomMembership{},
		&models.ContentCard{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

// newTestServer wires a Server against sqlite and in-memory object storage.
// Prometheus middleware is deliberately not initialized; repeated registry
// registration would panic across tests.
func newTestServer(t *testing.T, db *gorm.DB) *Server {
	t.Helper()

	cfg := &config.Config{
		Env:       "test",
		JWTSecret: "test-secret-test-secret-test-secret!",
	}

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	contentRepo := repository.NewContentRepository(db)
	buckets := storage.NewMemoryBuckets()

	s := &Server{
		config:      cfg,
		db:          db,
		userRepo:    userRepo,
		roomRepo:    roomRepo,
		contentRepo: contentRepo,
		buckets:     buckets,
		oauth:       auth.NewOAuthService(cfg),
	}
	s.accessService = service.NewAccessService(roomRepo)
	s.profileImages = service.NewProfileImageService(userRepo, buckets.ProfileImages)
	s.feedService = service.NewFeedService(userRepo, buckets.ContentImages, s.profileImages)
	s.typeahead = service.NewTypeaheadService(userRepo, roomRepo)
	return s
}

// newTestApp mirrors the route layout with a header-driven fake identity in
// place of the JWT middleware so tests can switch users per request.
func newTestApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if raw := c.Get(userIDHeader); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				c.Locals("userID", uint(id))
			}
		}
		return c.Next()
	})

	api := app.Group("/api")
	api.Post("/auth/signup", s.Signup)
	api.Post("/auth/login", s.Login)
	api.Post("/auth/logout", s.Logout)

	api.Get("/dashboard", s.GetDashboard)

	api.Get("/users/me", s.GetMyProfile)
	api.Put("/users/me", s.UpdateMyProfile)
	api.Post("/users/me/image", s.UploadProfileImage)
	api.Get("/users/username-check", s.CheckUsername)
	api.Get("/users/search", s.SearchUsers)
	api.Get("/users/:id", s.GetUserProfile)

	api.Post("/rooms/", s.CreateRoom)
	api.Get("/rooms/name-check", s.CheckRoomName)
	api.Get("/rooms/search", s.SearchRooms)
	api.Get("/rooms/mine", s.GetMyRooms)
	api.Post("/rooms/:id/request-access", s.RequestRoomAccess)
	api.Post("/rooms/:id/accept-request/:userId", s.AcceptRoomRequest)
	api.Post("/rooms/:id/deny-request/:userId", s.DenyRoomRequest)
	api.Post("/rooms/:id/image", s.UploadRoomImage)
	api.Post("/rooms/:id/contents", s.CreateRoomContent)
	api.Get("/rooms/:id", s.GetRoom)

	api.Post("/contents/", s.CreateContent)
	api.Get("/contents/", s.GetContents)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, asUser uint, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != 0 {
		req.Header.Set(userIDHeader, strconv.FormatUint(uint64(asUser), 10))
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func doMultipartImage(t *testing.T, app *fiber.App, path string, asUser uint, fields map[string]string, image []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "upload.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if asUser != 0 {
		req.Header.Set(userIDHeader, strconv.FormatUint(uint64(asUser), 10))
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func mustCreateUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: email, Name: "Test " + username}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// pngStub is a tiny valid PNG header, enough for upload handling tests.
var pngStub = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
