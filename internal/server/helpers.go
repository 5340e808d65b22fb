// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"errors"

	"interhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that a helper already committed the HTTP
// response. Handlers seeing it must return nil so Fiber's ErrorHandler
// does not write a second body.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPageSize = 100

// parsePagination reads limit and offset from the query string, clamping
// both to sane bounds.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	p := Pagination{
		Limit:  c.QueryInt("limit", defaultLimit),
		Offset: c.QueryInt("offset", 0),
	}
	switch {
	case p.Limit <= 0:
		p.Limit = defaultLimit
	case p.Limit > maxPageSize:
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// paramLabels maps route param names to the label used in validation errors.
var paramLabels = map[string]string{
	"id":     "ID",
	"userId": "user ID",
}

// parseID reads a route parameter as a positive uint. On failure it writes
// a 400 response and returns errResponseWritten, so callers just return nil.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		label, ok := paramLabels[param]
		if !ok {
			label = param
		}
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+label))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUserID reads the authenticated user ID placed in locals by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// currentUser loads the authenticated user's record.
// On failure it writes the error response and returns errResponseWritten.
func (s *Server) currentUser(c *fiber.Ctx) (*models.User, error) {
	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusInternalServerError, err)
		return nil, errResponseWritten
	}
	return user, nil
}

// loadRoom fetches the room the :id route param points at.
// Writes 400/404 responses itself and returns errResponseWritten on failure.
func (s *Server) loadRoom(c *fiber.Ctx) (*models.Room, error) {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil, errResponseWritten
	}

	room, err := s.roomRepo.GetByID(c.Context(), roomID)
	if err != nil {
		status := fiber.StatusInternalServerError
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "NOT_FOUND" {
			status = fiber.StatusNotFound
		}
		_ = models.RespondWithError(c, status, err)
		return nil, errResponseWritten
	}
	return room, nil
}
