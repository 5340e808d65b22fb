package service

import (
	"context"
	"testing"
	"time"

	"interhub/internal/models"
	"interhub/internal/repository"
	"interhub/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedAssemblePreservesOrderAndLength(t *testing.T) {
	db := setupServiceDB(t)
	userRepo := repository.NewUserRepository(db)
	ctx := context.Background()

	author := &models.User{Username: "author", Email: "author@dkit.ie"}
	require.NoError(t, db.Create(author).Error)

	contentImages := storage.NewMemoryStore("content-images")
	profileImages := storage.NewMemoryStore("profile-images")
	svc := NewFeedService(userRepo, contentImages, NewProfileImageService(userRepo, profileImages))

	now := time.Now().Unix()
	cards := make([]models.ContentCard, 5)
	for i := range cards {
		cards[i] = models.ContentCard{
			CreatorID:       author.ID,
			CreatorUsername: "author",
			Title:           string(rune('a' + i)),
			Timestamp:       now - int64(i),
			HasImage:        true,
		}
		require.NoError(t, db.Create(&cards[i]).Error)
	}

	items := svc.Assemble(ctx, cards)

	require.Len(t, items, len(cards))
	for i := range items {
		assert.Equal(t, cards[i].Title, items[i].Title)
		assert.NotEmpty(t, items[i].ImageURL)
	}
}

func TestFeedAssembleDegradesPerItem(t *testing.T) {
	db := setupServiceDB(t)
	userRepo := repository.NewUserRepository(db)
	ctx := context.Background()

	author := &models.User{Username: "author", Email: "author@dkit.ie"}
	require.NoError(t, db.Create(author).Error)

	contentImages := storage.NewMemoryStore("content-images")
	profileImages := storage.NewMemoryStore("profile-images")
	svc := NewFeedService(userRepo, contentImages, NewProfileImageService(userRepo, profileImages))

	cards := make([]models.ContentCard, 3)
	for i := range cards {
		cards[i] = models.ContentCard{
			CreatorID:       author.ID,
			CreatorUsername: "author",
			Title:           []string{"first", "second", "third"}[i],
			Timestamp:       time.Now().Unix(),
			HasImage:        true,
		}
		require.NoError(t, db.Create(&cards[i]).Error)
	}

	// Presigning the middle card fails; the others must still come through.
	contentImages.FailPresign[storage.ObjectKey(cards[1].ID)] = true

	items := svc.Assemble(ctx, cards)

	require.Len(t, items, 3)
	assert.NotEmpty(t, items[0].ImageURL)
	assert.Empty(t, items[1].ImageURL)
	assert.NotEmpty(t, items[2].ImageURL)
	assert.Equal(t, "second", items[1].Title)
}

func TestFeedAssembleEmptyInput(t *testing.T) {
	db := setupServiceDB(t)
	userRepo := repository.NewUserRepository(db)

	contentImages := storage.NewMemoryStore("content-images")
	profileImages := storage.NewMemoryStore("profile-images")
	svc := NewFeedService(userRepo, contentImages, NewProfileImageService(userRepo, profileImages))

	items := svc.Assemble(context.Background(), nil)
	assert.Empty(t, items)
}
