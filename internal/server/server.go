// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"interhub/internal/auth"
	"interhub/internal/cache"
	"interhub/internal/config"
	"interhub/internal/database"
	"interhub/internal/middleware"
	"interhub/internal/models"
	"interhub/internal/repository"
	"interhub/internal/service"
	"interhub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "interhub-api"
	tokenAudience = "interhub-client"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	roomRepo       repository.RoomRepository
	contentRepo    repository.ContentRepository
	buckets        *storage.Buckets
	oauth          *auth.OAuthService
	accessService  *service.AccessService
	feedService    *service.FeedService
	profileImages  *service.ProfileImageService
	typeahead      *service.TypeaheadService
}

// NewServer connects every external dependency and builds the Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	buckets, err := storage.NewMinioBuckets(storage.Options{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		UseSSL:    cfg.StorageUseSSL,
	}, cfg.ProfileImagesBucket, cfg.RoomImagesBucket, cfg.ContentImagesBucket)
	if err != nil {
		return nil, fmt.Errorf("object storage setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), buckets)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis/storage.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, buckets *storage.Buckets) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	contentRepo := repository.NewContentRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("interhub-api"),
		userRepo:       userRepo,
		roomRepo:       roomRepo,
		contentRepo:    contentRepo,
		buckets:        buckets,
		oauth:          auth.NewOAuthService(cfg),
	}
	server.accessService = service.NewAccessService(roomRepo)
	server.profileImages = service.NewProfileImageService(userRepo, buckets.ProfileImages)
	server.feedService = service.NewFeedService(userRepo, buckets.ContentImages, server.profileImages)
	server.typeahead = service.NewTypeaheadService(userRepo, roomRepo)

	return server, nil
}

// SetupMiddleware installs the shared middleware chain. Order matters:
// request IDs before context propagation, CORS before anything that can
// short-circuit so browsers still see CORS headers on errors.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Coarse per-IP ceiling; endpoint-specific limits live on the routes.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			// Preflight requests are CORS's business.
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	authGroup.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Get("/:provider", s.OAuthRedirect)
	authGroup.Get("/:provider/callback", s.OAuthCallback)

	// Protected routes
	protected := api.Group("", s.AuthRequired())
	protected.Post("/auth/logout", s.Logout)

	// Dashboard feed
	protected.Get("/dashboard", s.GetDashboard)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/image", s.UploadProfileImage)
	users.Get("/username-check", s.CheckUsername)
	users.Get("/search", middleware.RateLimit(
		s.redis, 30, time.Minute, "user_search"), s.SearchUsers)
	users.Get("/:id", s.GetUserProfile)

	// Room routes
	rooms := protected.Group("/rooms")
	rooms.Post("/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "create_room"), s.CreateRoom)
	rooms.Get("/name-check", s.CheckRoomName)
	rooms.Get("/search", middleware.RateLimit(
		s.redis, 30, time.Minute, "room_search"), s.SearchRooms)
	rooms.Get("/mine", s.GetMyRooms)
	// Specific /:id/:resource routes BEFORE generic /:id route
	rooms.Post("/:id/request-access", s.RequestRoomAccess)
	rooms.Post("/:id/accept-request/:userId", s.AcceptRoomRequest)
	rooms.Post("/:id/deny-request/:userId", s.DenyRoomRequest)
	rooms.Post("/:id/image", s.UploadRoomImage)
	rooms.Post("/:id/contents", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_content"), s.CreateRoomContent)
	rooms.Get("/:id", s.GetRoom)

	// Global content cards
	contents := protected.Group("/contents")
	contents.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_content"), s.CreateContent)
	contents.Get("/", s.GetContents)
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck reports that the process is up, nothing more.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

// ReadinessCheck probes the database and Redis. Only a dead database makes
// the service not ready; the cache is optional by design.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	checks := fiber.Map{
		"database": s.probeDB(ctx),
		"redis":    s.probeRedis(ctx),
	}

	status := fiber.StatusOK
	overall := "healthy"
	if checks["database"] != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
		"time":   time.Now(),
	})
}

func (s *Server) probeDB(ctx context.Context) string {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (s *Server) probeRedis(ctx context.Context) string {
	if s.redis == nil {
		return "unavailable"
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

// AuthRequired authenticates the bearer token and stores the resolved user
// ID in both Fiber locals and the request context.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, jti, err := s.verifyAccessToken(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(err.Error()))
		}

		if s.tokenRevoked(c.Context(), jti) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals("userID", userID)
		c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, userID))
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// parseClaims verifies the token signature plus issuer and audience, and
// returns the claims. Both the auth middleware and logout go through here.
func (s *Server) parseClaims(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("Invalid token claims")
	}
	if iss, _ := claims["iss"].(string); iss != tokenIssuer {
		return nil, fmt.Errorf("Invalid token issuer")
	}
	if aud, _ := claims["aud"].(string); aud != tokenAudience {
		return nil, fmt.Errorf("Invalid token audience")
	}
	return claims, nil
}

// verifyAccessToken resolves the user ID and jti from a validated token.
// The jti may be empty on tokens minted before revocation support.
func (s *Server) verifyAccessToken(raw string) (uint, string, error) {
	claims, err := s.parseClaims(raw)
	if err != nil {
		return 0, "", err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, "", fmt.Errorf("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("Invalid user ID in token")
	}

	jti, _ := claims["jti"].(string)
	return uint(userID), jti, nil
}

// tokenRevoked consults the logout blacklist. Without Redis there is no
// revocation, matching the cache-optional posture elsewhere.
func (s *Server) tokenRevoked(ctx context.Context, jti string) bool {
	if jti == "" || s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, "blacklist:"+jti).Result()
	return err == nil && n > 0
}

// Start builds the Fiber app and blocks serving requests.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName:   "InterHub API",
		BodyLimit: 10 * 1024 * 1024, // image uploads
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown drains the HTTP server, then closes the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			middleware.Logger.Error("closing database failed", slog.String("error", err.Error()))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("closing redis failed", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
