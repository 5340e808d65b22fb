// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"interhub/internal/models"
	"interhub/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const oauthStateCookie = "oauth_state"

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r signupRequest) validate() *models.AppError {
	if r.Username == "" || r.Email == "" || r.Password == "" {
		return models.NewValidationError("Username, email, and password are required")
	}
	for _, err := range []error{
		validation.ValidateUsername(r.Username),
		validation.ValidateEmail(r.Email),
		validation.ValidatePassword(r.Password),
	} {
		if err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if appErr := req.validate(); appErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
	}

	existing, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	available, err := s.userRepo.UsernameAvailable(c.Context(), req.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	switch {
	case existing != nil:
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("User already exists"))
	case !available:
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Username already taken"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
	}
	if err := s.userRepo.Create(c.Context(), user); err != nil {
		// A concurrent signup can still lose the uniqueness race at insert.
		status := fiber.StatusInternalServerError
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "CONFLICT" {
			status = fiber.StatusConflict
		}
		return models.RespondWithError(c, status, err)
	}

	return s.respondWithSession(c, fiber.StatusCreated, user, nil)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	// Provider-only accounts have no password hash and cannot log in here.
	if user == nil || user.Password == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	return s.respondWithSession(c, fiber.StatusOK, user, nil)
}

// Logout handles POST /api/auth/logout by blacklisting the token's JTI until
// its natural expiry. Without Redis this is a no-op success.
func (s *Server) Logout(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.JSON(fiber.Map{"message": "Logged out"})
	}

	claims, err := s.parseClaims(bearerToken(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token"))
	}

	jti, _ := claims["jti"].(string)
	exp, _ := claims["exp"].(float64)
	if jti != "" && exp > 0 {
		ttl := time.Until(time.Unix(int64(exp), 0))
		if ttl > 0 {
			if err := s.redis.Set(c.Context(), "blacklist:"+jti, "1", ttl).Err(); err != nil {
				return models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err))
			}
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// OAuthRedirect handles GET /api/auth/:provider by sending the browser to
// the provider's consent screen.
func (s *Server) OAuthRedirect(c *fiber.Ctx) error {
	provider := c.Params("provider")

	state := uuid.New().String()
	url, err := s.oauth.AuthURL(provider, state)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewValidationError("Unknown login provider"))
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		MaxAge:   600,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

// OAuthCallback handles GET /api/auth/:provider/callback. A successful
// exchange resolves or creates the local account and issues a session token.
func (s *Server) OAuthCallback(c *fiber.Ctx) error {
	provider := c.Params("provider")

	if errParam := c.Query("error"); errParam != "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Login was cancelled or failed at the provider"))
	}

	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid OAuth state"))
	}
	c.ClearCookie(oauthStateCookie)

	code := c.Query("code")
	if code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing authorization code"))
	}

	identity, err := s.oauth.Exchange(c.Context(), provider, code)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Provider login failed"))
	}

	user, err := s.userRepo.GetOrCreateByProvider(c.Context(), identity)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return s.respondWithSession(c, fiber.StatusOK, user, fiber.Map{
		// A fresh account has no username yet and must complete its profile.
		"profile_complete": user.HasProfile(),
	})
}

// respondWithSession mints a session token and writes it alongside the user
// record, merging any extra top-level fields into the payload.
func (s *Server) respondWithSession(c *fiber.Ctx, status int, user *models.User, extra fiber.Map) error {
	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	payload := fiber.Map{"token": token, "user": user}
	for k, v := range extra {
		payload[k] = v
	}
	return c.Status(status).JSON(payload)
}

// sessionTTL is how long an issued token stays valid. Logout can revoke a
// token earlier through the Redis blacklist.
const sessionTTL = 7 * 24 * time.Hour

// generateToken mints a signed session token for the user.
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	jti := fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      now.Add(sessionTTL).Unix(),
		"jti":      jti,
	})
	return token.SignedString([]byte(s.config.JWTSecret))
}
