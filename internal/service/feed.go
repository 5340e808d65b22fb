package service

import (
	"context"
	"log/slog"
	"time"

	"interhub/internal/middleware"
	"interhub/internal/models"
	"interhub/internal/observability"
	"interhub/internal/repository"
	"interhub/internal/storage"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// feedSignConcurrency bounds parallel presign calls per feed assembly.
const feedSignConcurrency = 8

// FeedItem is one renderable card: the stored card plus resolved image URLs.
type FeedItem struct {
	models.ContentCard
	ImageURL        string `json:"image_url,omitempty"`
	CreatorImageURL string `json:"creator_image_url,omitempty"`
}

// FeedService turns stored content cards into a renderable feed.
type FeedService struct {
	userRepo      repository.UserRepository
	contentImages storage.ObjectStore
	profileImages *ProfileImageService
}

// NewFeedService returns a new FeedService.
func NewFeedService(userRepo repository.UserRepository, contentImages storage.ObjectStore, profileImages *ProfileImageService) *FeedService {
	return &FeedService{
		userRepo:      userRepo,
		contentImages: contentImages,
		profileImages: profileImages,
	}
}

// Assemble resolves image URLs for every card, fanning out presign calls.
//
// The result always has the same length and order as the input. A card whose
// image cannot be signed ships with an empty URL rather than sinking the
// whole feed; failures are logged and counted.
func (s *FeedService) Assemble(ctx context.Context, cards []models.ContentCard) []FeedItem {
	start := time.Now()
	ctx, endSpan := observability.StartSpan(ctx, "feed.assemble",
		attribute.Int("feed.card_count", len(cards)))
	defer endSpan(nil)

	items := make([]FeedItem, len(cards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(feedSignConcurrency)

	for i := range cards {
		i := i
		items[i].ContentCard = cards[i]
		g.Go(func() error {
			s.resolveItem(gctx, &items[i])
			return nil
		})
	}

	// Workers never return errors; per-item failures degrade in place.
	_ = g.Wait()

	observability.ObserveFeedAssembly(start)
	return items
}

func (s *FeedService) resolveItem(ctx context.Context, item *FeedItem) {
	if item.HasImage {
		url, err := s.contentImages.PresignGet(ctx, storage.ObjectKey(item.ID), storage.SignedURLExpiry)
		if err != nil {
			observability.FeedImageFailures.Inc()
			middleware.Logger.WarnContext(ctx, "Failed to sign content image, serving card without it",
				slog.Uint64("content_id", uint64(item.ID)), slog.String("error", err.Error()))
		} else {
			item.ImageURL = url
		}
	}

	creator, err := s.userRepo.GetByID(ctx, item.CreatorID)
	if err != nil {
		observability.FeedImageFailures.Inc()
		middleware.Logger.WarnContext(ctx, "Failed to load card creator, serving card without avatar",
			slog.Uint64("creator_id", uint64(item.CreatorID)), slog.String("error", err.Error()))
		return
	}
	item.CreatorImageURL = s.profileImages.URL(ctx, creator)
}
