// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"interhub/internal/auth"
	"interhub/internal/cache"
	"interhub/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	SearchByUsernamePrefix(ctx context.Context, prefix string, excludeID uint, limit int) ([]models.User, error)
	GetOrCreateByProvider(ctx context.Context, identity *auth.Identity) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail matches case-insensitively. Returns (nil, nil) when no user
// carries the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("lower(email) = lower(?)", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername matches case-insensitively. Returns (nil, nil) when the
// username is unclaimed.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("lower(username) = lower(?)", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("lower(username) = lower(?)", username).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count == 0, nil
}

// SearchByUsernamePrefix returns profile-complete users whose username starts
// with the prefix, excluding the searching user. Ordering and exact-match
// pinning are the caller's concern.
func (r *userRepository) SearchByUsernamePrefix(ctx context.Context, prefix string, excludeID uint, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where(`lower(username) LIKE lower(?) ESCAPE '\'`, escapeLike(prefix)+"%").
		Where("username <> ''").
		Where("id <> ?", excludeID).
		Order("lower(username) ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// GetOrCreateByProvider resolves an external identity to a local user.
// Match order: provider ID column, then email linking, then a fresh account
// with an empty username awaiting profile completion.
func (r *userRepository) GetOrCreateByProvider(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	column, err := providerColumn(identity.Provider)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var user models.User
	err = r.db.WithContext(ctx).Where(column+" = ?", identity.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	if identity.Email != "" {
		existing, err := r.GetByEmail(ctx, identity.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := r.db.WithContext(ctx).Model(existing).Update(column, identity.ID).Error; err != nil {
				return nil, models.NewInternalError(err)
			}
			cache.InvalidateUser(ctx, existing.ID)
			return existing, nil
		}
	}

	user = models.User{Email: identity.Email, Name: identity.Name}
	switch identity.Provider {
	case auth.ProviderGoogle:
		user.GoogleID = identity.ID
	case auth.ProviderOutlook:
		user.OutlookID = identity.ID
	case auth.ProviderFacebook:
		user.FacebookID = identity.ID
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func providerColumn(provider string) (string, error) {
	switch provider {
	case auth.ProviderGoogle:
		return "google_id", nil
	case auth.ProviderOutlook:
		return "outlook_id", nil
	case auth.ProviderFacebook:
		return "facebook_id", nil
	}
	return "", errors.New("repository: unknown identity provider " + provider)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// PostgreSQL unique violation SQLSTATE 23505
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// SQLite (tests) and drivers that surface plain-text errors
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// escapeLike neutralizes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
