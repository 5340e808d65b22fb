package service

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"interhub/internal/cache"
	"interhub/internal/middleware"
	"interhub/internal/models"
	"interhub/internal/observability"
	"interhub/internal/repository"
	"interhub/internal/storage"
)

// ProfileImageService serves signed profile image URLs without re-signing
// on every page view. Fresh URLs live in Redis under a TTL; the users table
// keeps the last signed URL and its refresh time as a fallback when Redis
// is down.
type ProfileImageService struct {
	userRepo repository.UserRepository
	store    storage.ObjectStore
}

// NewProfileImageService returns a new ProfileImageService.
func NewProfileImageService(userRepo repository.UserRepository, store storage.ObjectStore) *ProfileImageService {
	return &ProfileImageService{userRepo: userRepo, store: store}
}

// URL returns a usable signed URL for the user's profile image, or "" when
// the user has never uploaded one.
func (s *ProfileImageService) URL(ctx context.Context, user *models.User) string {
	if user.ImageURL == "" {
		return ""
	}

	if cached, ok := cache.GetString(ctx, cache.ProfileImageKey(user.ID)); ok {
		observability.ProfileImageRefreshes.WithLabelValues("hit").Inc()
		return cached
	}

	// Redis miss or unavailable. The stored column URL is still good while
	// its refresh time is within the cache window.
	if user.ImageURLRefreshedAt != nil && time.Since(*user.ImageURLRefreshedAt) < cache.ProfileImageTTL {
		cache.SetString(ctx, cache.ProfileImageKey(user.ID), user.ImageURL, cache.ProfileImageTTL)
		observability.ProfileImageRefreshes.WithLabelValues("hit").Inc()
		return user.ImageURL
	}

	url, err := s.refresh(ctx, user)
	if err != nil {
		observability.ProfileImageRefreshes.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "Failed to refresh profile image URL, serving stale",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
		return user.ImageURL
	}
	return url
}

// Upload stores the image under the user's stable object key and records a
// fresh signed URL.
func (s *ProfileImageService) Upload(ctx context.Context, user *models.User, data []byte, contentType string) (string, error) {
	key := storage.ObjectKey(user.ID)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", models.NewInternalError(err)
	}

	url, err := s.refresh(ctx, user)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return url, nil
}

// refresh signs a new URL, persists it on the user row and repopulates the
// Redis entry.
func (s *ProfileImageService) refresh(ctx context.Context, user *models.User) (string, error) {
	url, err := s.store.PresignGet(ctx, storage.ObjectKey(user.ID), storage.SignedURLExpiry)
	if err != nil {
		return "", err
	}

	now := time.Now()
	user.ImageURL = url
	user.ImageURLRefreshedAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", err
	}

	cache.SetString(ctx, cache.ProfileImageKey(user.ID), url, cache.ProfileImageTTL)
	observability.ProfileImageRefreshes.WithLabelValues("refreshed").Inc()
	return url, nil
}
