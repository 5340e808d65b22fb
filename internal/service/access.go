// Package service provides application business logic (rooms, feeds, profiles).
package service

import (
	"context"

	"interhub/internal/models"
	"interhub/internal/repository"
)

// AccessDecision is the outcome of evaluating a user against a room.
type AccessDecision struct {
	Status models.AccessStatus
	// IsCreator grants the moderation surface (pending request review).
	IsCreator bool
	// Requesters is populated only for the creator of a private room.
	Requesters []models.User
}

// AccessService decides who may see a room's contents.
type AccessService struct {
	roomRepo repository.RoomRepository
}

// NewAccessService returns a new AccessService.
func NewAccessService(roomRepo repository.RoomRepository) *AccessService {
	return &AccessService{roomRepo: roomRepo}
}

// Evaluate resolves the viewer's access to the room.
//
// Public rooms are open to everyone. For private rooms the decision follows
// the membership row: member sees the room, a pending requester sees a
// waiting state, anyone else is denied. The creator additionally receives
// the pending request list.
func (s *AccessService) Evaluate(ctx context.Context, room *models.Room, userID uint) (*AccessDecision, error) {
	decision := &AccessDecision{IsCreator: room.CreatorID == userID}

	if !room.IsPrivate() {
		decision.Status = models.AccessGranted
		return decision, nil
	}

	if decision.IsCreator {
		decision.Status = models.AccessGranted
		requesters, err := s.roomRepo.ListRequesters(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		decision.Requesters = requesters
		return decision, nil
	}

	status, exists, err := s.roomRepo.MembershipStatus(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case exists && status == models.RoomMembershipMember:
		decision.Status = models.AccessGranted
	case exists && status == models.RoomMembershipRequested:
		decision.Status = models.AccessRequested
	default:
		decision.Status = models.AccessDenied
	}
	return decision, nil
}

// RequestAccess files an access request for a private room. Creators and
// existing members pass through without a new row; repeat requests are
// accepted silently.
func (s *AccessService) RequestAccess(ctx context.Context, room *models.Room, userID uint) (*AccessDecision, error) {
	if !room.IsPrivate() {
		return &AccessDecision{Status: models.AccessGranted, IsCreator: room.CreatorID == userID}, nil
	}
	if room.CreatorID == userID {
		return &AccessDecision{Status: models.AccessGranted, IsCreator: true}, nil
	}

	status, exists, err := s.roomRepo.MembershipStatus(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}
	if exists && status == models.RoomMembershipMember {
		return &AccessDecision{Status: models.AccessGranted}, nil
	}

	if err := s.roomRepo.RequestAccess(ctx, room.ID, userID); err != nil {
		return nil, err
	}
	return &AccessDecision{Status: models.AccessRequested}, nil
}
