package repository

import (
	"context"
	"errors"

	"interhub/internal/cache"
	"interhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository defines persistence operations for rooms and their
// membership rows.
type RoomRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Room, error)
	GetByName(ctx context.Context, name string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room, memberIDs ...uint) error
	Update(ctx context.Context, room *models.Room) error
	NameAvailable(ctx context.Context, name string) (bool, error)
	SearchByNamePrefix(ctx context.Context, prefix string, limit int) ([]models.Room, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Room, error)

	MembershipStatus(ctx context.Context, roomID, userID uint) (models.RoomMembershipStatus, bool, error)
	RequestAccess(ctx context.Context, roomID, userID uint) error
	AcceptRequest(ctx context.Context, roomID, userID uint) error
	DenyRequest(ctx context.Context, roomID, userID uint) error
	ListRequesters(ctx context.Context, roomID uint) ([]models.User, error)
	ListMembers(ctx context.Context, roomID uint) ([]models.User, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository returns a new RoomRepository implementation.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	key := cache.RoomKey(id)

	err := cache.Aside(ctx, key, &room, cache.RoomTTL, func() error {
		if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Room", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByName matches case-insensitively. Returns (nil, nil) when no room
// carries the name.
func (r *roomRepository) GetByName(ctx context.Context, name string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Where("lower(name) = lower(?)", name).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &room, nil
}

// Create persists the room and enrolls the creator, plus any invited
// members, in the same transaction.
func (r *roomRepository) Create(ctx context.Context, room *models.Room, memberIDs ...uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		memberships := []models.RoomMembership{{
			RoomID: room.ID,
			UserID: room.CreatorID,
			Status: models.RoomMembershipMember,
		}}
		for _, id := range memberIDs {
			if id == room.CreatorID {
				continue
			}
			memberships = append(memberships, models.RoomMembership{
				RoomID: room.ID,
				UserID: id,
				Status: models.RoomMembershipMember,
			})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&memberships).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Room name already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) Update(ctx context.Context, room *models.Room) error {
	if err := r.db.WithContext(ctx).Save(room).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Room name already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateRoom(ctx, room.ID)
	return nil
}

func (r *roomRepository) NameAvailable(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("lower(name) = lower(?)", name).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count == 0, nil
}

// SearchByNamePrefix returns rooms whose name starts with the prefix.
// Ordering of an exact match is the caller's concern.
func (r *roomRepository) SearchByNamePrefix(ctx context.Context, prefix string, limit int) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Where(`lower(name) LIKE lower(?) ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("lower(name) ASC").
		Limit(limit).
		Find(&rooms).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

// ListForUser returns the rooms the user belongs to, newest first.
func (r *roomRepository) ListForUser(ctx context.Context, userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Joins("JOIN room_memberships ON room_memberships.room_id = rooms.id").
		Where("room_memberships.user_id = ? AND room_memberships.status = ?", userID, models.RoomMembershipMember).
		Order("rooms.created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

// MembershipStatus reports the user's membership row for the room. The
// second return is false when no row exists.
func (r *roomRepository) MembershipStatus(ctx context.Context, roomID, userID uint) (models.RoomMembershipStatus, bool, error) {
	var membership models.RoomMembership
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, models.NewInternalError(err)
	}
	return membership.Status, true, nil
}

// RequestAccess records a pending access request. Repeating a request is a
// no-op; an existing membership is left untouched.
func (r *roomRepository) RequestAccess(ctx context.Context, roomID, userID uint) error {
	membership := models.RoomMembership{
		RoomID: roomID,
		UserID: userID,
		Status: models.RoomMembershipRequested,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&membership).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// AcceptRequest promotes a pending request to membership. The guarded update
// makes concurrent accept and deny race-safe: exactly one wins.
func (r *roomRepository) AcceptRequest(ctx context.Context, roomID, userID uint) error {
	result := r.db.WithContext(ctx).Model(&models.RoomMembership{}).
		Where("room_id = ? AND user_id = ? AND status = ?", roomID, userID, models.RoomMembershipRequested).
		Update("status", models.RoomMembershipMember)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Access request", userID)
	}
	return nil
}

// DenyRequest removes a pending request without touching members.
func (r *roomRepository) DenyRequest(ctx context.Context, roomID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ? AND status = ?", roomID, userID, models.RoomMembershipRequested).
		Delete(&models.RoomMembership{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Access request", userID)
	}
	return nil
}

// ListRequesters returns the users with pending requests, oldest first so
// the creator reviews them in arrival order.
func (r *roomRepository) ListRequesters(ctx context.Context, roomID uint) ([]models.User, error) {
	return r.listByStatus(ctx, roomID, models.RoomMembershipRequested)
}

// ListMembers returns the room's members, oldest first.
func (r *roomRepository) ListMembers(ctx context.Context, roomID uint) ([]models.User, error) {
	return r.listByStatus(ctx, roomID, models.RoomMembershipMember)
}

func (r *roomRepository) listByStatus(ctx context.Context, roomID uint, status models.RoomMembershipStatus) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN room_memberships ON room_memberships.user_id = users.id").
		Where("room_memberships.room_id = ? AND room_memberships.status = ?", roomID, status).
		Order("room_memberships.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
