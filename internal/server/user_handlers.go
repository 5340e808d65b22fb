// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"io"
	"strings"

	"interhub/internal/models"
	"interhub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	return c.JSON(fiber.Map{
		"user":             user,
		"image_url":        s.profileImages.URL(c.Context(), user),
		"profile_complete": user.HasProfile(),
	})
}

// UpdateMyProfile handles PUT /api/users/me. First-time completion claims a
// username; later calls update the editable profile fields.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username    string `json:"username"`
		Name        string `json:"name"`
		Country     string `json:"country"`
		Course      string `json:"course"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username != "" && !strings.EqualFold(req.Username, user.Username) {
		if err := validation.ValidateUsername(req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		available, err := s.userRepo.UsernameAvailable(c.Context(), req.Username)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !available {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("Username already taken"))
		}
		user.Username = req.Username
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Country != "" {
		user.Country = req.Country
	}
	if req.Course != "" {
		user.Course = req.Course
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "CONFLICT" {
			return models.RespondWithError(c, fiber.StatusConflict, err)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"user":             user,
		"profile_complete": user.HasProfile(),
	})
}

// UploadProfileImage handles POST /api/users/me/image (multipart form, field "image").
func (s *Server) UploadProfileImage(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	data, contentType, err := readUploadedImage(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	url, err := s.profileImages.Upload(c.Context(), user, data, contentType)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"image_url": url})
}

// CheckUsername handles GET /api/users/username-check?username=...
func (s *Server) CheckUsername(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("username query parameter is required"))
	}

	if err := validation.ValidateUsername(username); err != nil {
		return c.JSON(fiber.Map{"available": false, "reason": err.Error()})
	}

	available, err := s.userRepo.UsernameAvailable(c.Context(), username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

// SearchUsers handles GET /api/users/search?q=... returning typeahead
// suggestions with profile image URLs.
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.typeahead.Users(c.Context(), c.Query("q"), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	results := make([]fiber.Map, len(users))
	for i := range users {
		results[i] = fiber.Map{
			"id":        users[i].ID,
			"username":  users[i].Username,
			"name":      users[i].Name,
			"image_url": s.profileImages.URL(c.Context(), &users[i]),
		}
	}
	return c.JSON(fiber.Map{"users": results})
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		status := fiber.StatusInternalServerError
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "NOT_FOUND" {
			status = fiber.StatusNotFound
		}
		return models.RespondWithError(c, status, err)
	}

	return c.JSON(fiber.Map{
		"user":      user,
		"image_url": s.profileImages.URL(c.Context(), user),
	})
}

// readUploadedImage pulls the "image" file out of a multipart form.
func readUploadedImage(c *fiber.Ctx) ([]byte, string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "could not read image file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "could not read image file")
	}
	if len(data) == 0 {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "image file is empty")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
