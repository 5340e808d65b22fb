// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"bytes"
	"log/slog"
	"strings"
	"time"

	"interhub/internal/middleware"
	"interhub/internal/models"
	"interhub/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const maxContentTitleLength = 120

// contentInput carries the fields of a new card from either JSON or
// multipart form bodies.
type contentInput struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// GetDashboard handles GET /api/dashboard: the global feed plus the
// viewer's rooms.
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	// Provider-created accounts have no username until profile input.
	if !user.HasProfile() {
		return models.RespondWithError(c, fiber.StatusConflict, &models.AppError{
			Code:    "PROFILE_INCOMPLETE",
			Message: "Complete your profile before using the dashboard",
		})
	}

	p := parsePagination(c, 20)

	cards, err := s.contentRepo.ListGlobal(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	rooms, err := s.roomRepo.ListForUser(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"contents":  s.feedService.Assemble(c.Context(), cards),
		"rooms":     rooms,
		"image_url": s.profileImages.URL(c.Context(), user),
	})
}

// GetContents handles GET /api/contents: the global feed on its own.
func (s *Server) GetContents(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	cards, err := s.contentRepo.ListGlobal(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"contents": s.feedService.Assemble(c.Context(), cards)})
}

// CreateContent handles POST /api/contents: a card on the global dashboard.
func (s *Server) CreateContent(c *fiber.Ctx) error {
	return s.createCard(c, nil)
}

// CreateRoomContent handles POST /api/rooms/:id/contents. Posting into a
// private room requires membership.
func (s *Server) CreateRoomContent(c *fiber.Ctx) error {
	room, err := s.loadRoom(c)
	if err != nil {
		return nil
	}

	decision, err := s.accessService.Evaluate(c.Context(), room, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if decision.Status != models.AccessGranted {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Room membership required to post here"))
	}

	return s.createCard(c, &room.ID)
}

// createCard validates the input, persists the card and stores its image,
// if one was attached.
func (s *Server) createCard(c *fiber.Ctx, roomID *uint) error {
	var req contentInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title and content are required"))
	}
	if len(req.Title) > maxContentTitleLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title is too long"))
	}

	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	imageData, imageType, hasImage := optionalUploadedImage(c)

	card := &models.ContentCard{
		CreatorID: user.ID,
		// Username cached at creation time; cards keep the historical value.
		CreatorUsername: user.Username,
		Title:           req.Title,
		Content:         req.Content,
		HasImage:        hasImage,
		Timestamp:       time.Now().Unix(),
		RoomID:          roomID,
	}
	if err := s.contentRepo.Create(c.Context(), card); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	var imageURL string
	if hasImage {
		key := storage.ObjectKey(card.ID)
		putErr := s.buckets.ContentImages.Put(c.Context(), key,
			bytes.NewReader(imageData), int64(len(imageData)), imageType)
		if putErr != nil {
			// The card is already saved; the feed serves it without the image.
			middleware.Logger.WarnContext(c.Context(), "Failed to store content image",
				slog.Uint64("content_id", uint64(card.ID)), slog.String("error", putErr.Error()))
		} else if url, signErr := s.buckets.ContentImages.PresignGet(c.Context(), key, storage.SignedURLExpiry); signErr == nil {
			imageURL = url
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"content":   card,
		"image_url": imageURL,
	})
}

// optionalUploadedImage reads the "image" multipart field if present.
func optionalUploadedImage(c *fiber.Ctx) ([]byte, string, bool) {
	if _, err := c.FormFile("image"); err != nil {
		return nil, "", false
	}
	data, contentType, err := readUploadedImage(c)
	if err != nil {
		return nil, "", false
	}
	return data, contentType, true
}
