package repository

import (
	"context"

	"interhub/internal/models"

	"gorm.io/gorm"
)

// ContentRepository defines persistence operations for content cards.
// Cards are append-only; there is no update or delete path.
type ContentRepository interface {
	Create(ctx context.Context, card *models.ContentCard) error
	ListGlobal(ctx context.Context, limit, offset int) ([]models.ContentCard, error)
	ListByRoom(ctx context.Context, roomID uint, limit, offset int) ([]models.ContentCard, error)
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository returns a new ContentRepository implementation.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Create(ctx context.Context, card *models.ContentCard) error {
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListGlobal returns dashboard cards, newest first. Cards posted into rooms
// never surface here.
func (r *contentRepository) ListGlobal(ctx context.Context, limit, offset int) ([]models.ContentCard, error) {
	var cards []models.ContentCard
	err := r.db.WithContext(ctx).
		Where("room_id IS NULL").
		Order("timestamp DESC").
		Limit(limit).Offset(offset).
		Find(&cards).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return cards, nil
}

// ListByRoom returns a room's cards, newest first.
func (r *contentRepository) ListByRoom(ctx context.Context, roomID uint, limit, offset int) ([]models.ContentCard, error) {
	var cards []models.ContentCard
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("timestamp DESC").
		Limit(limit).Offset(offset).
		Find(&cards).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return cards, nil
}
