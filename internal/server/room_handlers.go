// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"bytes"
	"log/slog"
	"strings"

	"interhub/internal/middleware"
	"interhub/internal/models"
	"interhub/internal/storage"
	"interhub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateRoom handles POST /api/rooms
func (s *Server) CreateRoom(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Type        string `json:"type"`
		// Users to enroll as members alongside the creator. Private rooms only.
		MemberIDs []uint `json:"member_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateRoomName(req.Name); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateRoomDescription(req.Description); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	roomType := models.RoomType(req.Type)
	if roomType != models.RoomTypePublic && roomType != models.RoomTypePrivate {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Room type must be public or private"))
	}

	available, err := s.roomRepo.NameAvailable(c.Context(), req.Name)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if !available {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Room name already taken"))
	}

	room := &models.Room{
		CreatorID:   currentUserID(c),
		Name:        req.Name,
		Description: req.Description,
		Type:        roomType,
	}
	var invited []uint
	if roomType == models.RoomTypePrivate {
		invited = req.MemberIDs
	}
	if err := s.roomRepo.Create(c.Context(), room, invited...); err != nil {
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "CONFLICT" {
			return models.RespondWithError(c, fiber.StatusConflict, err)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"room": room})
}

// CheckRoomName handles GET /api/rooms/name-check?name=...
func (s *Server) CheckRoomName(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("name query parameter is required"))
	}

	if err := validation.ValidateRoomName(name); err != nil {
		return c.JSON(fiber.Map{"available": false, "reason": err.Error()})
	}

	available, err := s.roomRepo.NameAvailable(c.Context(), name)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

// SearchRooms handles GET /api/rooms/search?q=... returning typeahead suggestions.
func (s *Server) SearchRooms(c *fiber.Ctx) error {
	rooms, err := s.typeahead.Rooms(c.Context(), c.Query("q"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	results := make([]fiber.Map, len(rooms))
	for i := range rooms {
		results[i] = fiber.Map{
			"id":        rooms[i].ID,
			"name":      rooms[i].Name,
			"type":      rooms[i].Type,
			"image_url": s.roomImageURL(c, &rooms[i]),
		}
	}
	return c.JSON(fiber.Map{"rooms": results})
}

// GetMyRooms handles GET /api/rooms/mine
func (s *Server) GetMyRooms(c *fiber.Ctx) error {
	rooms, err := s.roomRepo.ListForUser(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"rooms": rooms})
}

// GetRoom handles GET /api/rooms/:id.
//
// The response shape depends on the viewer's access: members and public
// visitors get the room with its feed, a pending requester gets a waiting
// state, everyone else gets a denial they can act on by requesting access.
func (s *Server) GetRoom(c *fiber.Ctx) error {
	room, err := s.loadRoom(c)
	if err != nil {
		return nil
	}

	decision, err := s.accessService.Evaluate(c.Context(), room, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	switch decision.Status {
	case models.AccessRequested:
		return c.JSON(fiber.Map{
			"access": models.AccessRequested,
			"room":   fiber.Map{"id": room.ID, "name": room.Name, "type": room.Type},
		})
	case models.AccessDenied:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"access": models.AccessDenied,
			"room":   fiber.Map{"id": room.ID, "name": room.Name, "type": room.Type},
		})
	}

	p := parsePagination(c, 20)
	cards, err := s.contentRepo.ListByRoom(c.Context(), room.ID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	members, err := s.roomRepo.ListMembers(c.Context(), room.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	response := fiber.Map{
		"access":    models.AccessGranted,
		"room":      room,
		"image_url": s.roomImageURL(c, room),
		"contents":  s.feedService.Assemble(c.Context(), cards),
		"members":   members,
	}
	if decision.IsCreator && room.IsPrivate() {
		response["requesters"] = decision.Requesters
	}
	return c.JSON(response)
}

// RequestRoomAccess handles POST /api/rooms/:id/request-access
func (s *Server) RequestRoomAccess(c *fiber.Ctx) error {
	room, err := s.loadRoom(c)
	if err != nil {
		return nil
	}

	decision, err := s.accessService.RequestAccess(c.Context(), room, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"access": decision.Status})
}

// AcceptRoomRequest handles POST /api/rooms/:id/accept-request/:userId.
// Creator only.
func (s *Server) AcceptRoomRequest(c *fiber.Ctx) error {
	room, userID, ok := s.loadModerationTarget(c)
	if !ok {
		return nil
	}

	if err := s.roomRepo.AcceptRequest(c.Context(), room.ID, userID); err != nil {
		status := fiber.StatusInternalServerError
		if appErr, isApp := err.(*models.AppError); isApp && appErr.Code == "NOT_FOUND" {
			status = fiber.StatusNotFound
		}
		return models.RespondWithError(c, status, err)
	}
	return c.JSON(fiber.Map{"status": models.RoomMembershipMember})
}

// DenyRoomRequest handles POST /api/rooms/:id/deny-request/:userId.
// Creator only.
func (s *Server) DenyRoomRequest(c *fiber.Ctx) error {
	room, userID, ok := s.loadModerationTarget(c)
	if !ok {
		return nil
	}

	if err := s.roomRepo.DenyRequest(c.Context(), room.ID, userID); err != nil {
		status := fiber.StatusInternalServerError
		if appErr, isApp := err.(*models.AppError); isApp && appErr.Code == "NOT_FOUND" {
			status = fiber.StatusNotFound
		}
		return models.RespondWithError(c, status, err)
	}
	return c.JSON(fiber.Map{"status": "denied"})
}

// UploadRoomImage handles POST /api/rooms/:id/image. Creator only.
func (s *Server) UploadRoomImage(c *fiber.Ctx) error {
	room, err := s.loadRoom(c)
	if err != nil {
		return nil
	}
	if room.CreatorID != currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Only the room creator can change its image"))
	}

	data, contentType, err := readUploadedImage(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	key := storage.ObjectKey(room.ID)
	if err := s.buckets.RoomImages.Put(c.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	url, err := s.buckets.RoomImages.PresignGet(c.Context(), key, storage.SignedURLExpiry)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	room.ImageURL = url
	if err := s.roomRepo.Update(c.Context(), room); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"image_url": url})
}

// loadModerationTarget resolves the :id room and :userId params and enforces
// that the caller created the room. Responses are written on failure.
func (s *Server) loadModerationTarget(c *fiber.Ctx) (*models.Room, uint, bool) {
	room, err := s.loadRoom(c)
	if err != nil {
		return nil, 0, false
	}

	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil, 0, false
	}

	if room.CreatorID != currentUserID(c) {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Only the room creator can manage access requests"))
		return nil, 0, false
	}
	return room, userID, true
}

// roomImageURL signs the room's image URL, or "" when it has none.
func (s *Server) roomImageURL(c *fiber.Ctx, room *models.Room) string {
	if room.ImageURL == "" {
		return ""
	}
	url, err := s.buckets.RoomImages.PresignGet(c.Context(), storage.ObjectKey(room.ID), storage.SignedURLExpiry)
	if err != nil {
		middleware.Logger.WarnContext(c.Context(), "Failed to sign room image URL, serving stored value",
			slog.Uint64("room_id", uint64(room.ID)), slog.String("error", err.Error()))
		return room.ImageURL
	}
	return url
}
