package repository

import (
	"context"
	"testing"

	"interhub/internal/auth"
	"interhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.RoomMembership{},
		&models.ContentCard{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Create and GetByID", func(t *testing.T) {
		user := &models.User{Username: "alice", Email: "alice@dkit.ie", Name: "Alice"}
		err := repo.Create(ctx, user)
		require.NoError(t, err)
		require.NotZero(t, user.ID)

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("GetByID not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 9999)
		require.Error(t, err)
		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})

	t.Run("GetByEmail is case-insensitive", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "ALICE@DKIT.IE")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("GetByUsername misses return nil without error", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("UsernameAvailable ignores case", func(t *testing.T) {
		available, err := repo.UsernameAvailable(ctx, "ALICE")
		require.NoError(t, err)
		assert.False(t, available)

		available, err = repo.UsernameAvailable(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("SearchByUsernamePrefix excludes the searcher", func(t *testing.T) {
		alice, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)

		for _, u := range []models.User{
			{Username: "albert", Email: "albert@dkit.ie"},
			{Username: "Alma", Email: "alma@dkit.ie"},
			{Username: "bernard", Email: "bernard@dkit.ie"},
		} {
			u := u
			require.NoError(t, repo.Create(ctx, &u))
		}

		matches, err := repo.SearchByUsernamePrefix(ctx, "al", alice.ID, 4)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		for _, m := range matches {
			assert.NotEqual(t, alice.ID, m.ID)
		}
	})
}

func TestUserRepositoryProviderResolution(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("creates a fresh account on first login", func(t *testing.T) {
		user, err := repo.GetOrCreateByProvider(ctx, &auth.Identity{
			Provider: auth.ProviderGoogle,
			ID:       "google-123",
			Email:    "carol@dkit.ie",
			Name:     "Carol",
		})
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "google-123", user.GoogleID)
		assert.False(t, user.HasProfile())
	})

	t.Run("resolves a returning user by provider ID", func(t *testing.T) {
		again, err := repo.GetOrCreateByProvider(ctx, &auth.Identity{
			Provider: auth.ProviderGoogle,
			ID:       "google-123",
			Email:    "carol@dkit.ie",
		})
		require.NoError(t, err)

		var count int64
		db.Model(&models.User{}).Count(&count)
		assert.EqualValues(t, 1, count)
		assert.Equal(t, "google-123", again.GoogleID)
	})

	t.Run("links a second provider to the same email", func(t *testing.T) {
		linked, err := repo.GetOrCreateByProvider(ctx, &auth.Identity{
			Provider: auth.ProviderFacebook,
			ID:       "fb-456",
			Email:    "carol@dkit.ie",
		})
		require.NoError(t, err)

		var count int64
		db.Model(&models.User{}).Count(&count)
		assert.EqualValues(t, 1, count)

		fresh, err := repo.GetByEmail(ctx, "carol@dkit.ie")
		require.NoError(t, err)
		assert.Equal(t, linked.ID, fresh.ID)
		assert.Equal(t, "fb-456", fresh.FacebookID)
		assert.Equal(t, "google-123", fresh.GoogleID)
	})
}
