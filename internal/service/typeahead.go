package service

import (
	"context"
	"strings"

	"interhub/internal/models"
	"interhub/internal/repository"
)

// typeaheadLimit caps search suggestion lists.
const typeaheadLimit = 4

// TypeaheadService backs the search-as-you-type suggestion endpoints.
type TypeaheadService struct {
	userRepo repository.UserRepository
	roomRepo repository.RoomRepository
}

// NewTypeaheadService returns a new TypeaheadService.
func NewTypeaheadService(userRepo repository.UserRepository, roomRepo repository.RoomRepository) *TypeaheadService {
	return &TypeaheadService{userRepo: userRepo, roomRepo: roomRepo}
}

// Users suggests up to four users whose username starts with the query,
// case-insensitively. An exact match is pinned first. The searching user is
// never suggested to themselves.
func (s *TypeaheadService) Users(ctx context.Context, query string, selfID uint) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}

	matches, err := s.userRepo.SearchByUsernamePrefix(ctx, query, selfID, typeaheadLimit)
	if err != nil {
		return nil, err
	}

	for i := range matches {
		if strings.EqualFold(matches[i].Username, query) {
			pinFirstUser(matches, i)
			break
		}
	}
	return matches, nil
}

// Rooms suggests up to four rooms by name prefix, exact match first.
func (s *TypeaheadService) Rooms(ctx context.Context, query string) ([]models.Room, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Room{}, nil
	}

	matches, err := s.roomRepo.SearchByNamePrefix(ctx, query, typeaheadLimit)
	if err != nil {
		return nil, err
	}

	for i := range matches {
		if strings.EqualFold(matches[i].Name, query) {
			pinFirstRoom(matches, i)
			break
		}
	}
	return matches, nil
}

func pinFirstUser(users []models.User, i int) {
	pinned := users[i]
	copy(users[1:i+1], users[:i])
	users[0] = pinned
}

func pinFirstRoom(rooms []models.Room, i int) {
	pinned := rooms[i]
	copy(rooms[1:i+1], rooms[:i])
	rooms[0] = pinned
}
