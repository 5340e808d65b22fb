package cache

import (
	"context"
	"strconv"
	"time"
)

// Cache TTLs. ProfileImageTTL sits far below the signed URL expiry so a
// cached URL never outlives the object storage grant backing it.
const (
	UserTTL         = 5 * time.Minute
	RoomTTL         = 10 * time.Minute
	ProfileImageTTL = 24 * time.Hour
)

// UserKey caches a user record by ID.
func UserKey(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// RoomKey caches a room record by ID.
func RoomKey(roomID uint) string {
	return "room:" + strconv.FormatUint(uint64(roomID), 10)
}

// ProfileImageKey caches a user's presigned profile image URL.
func ProfileImageKey(userID uint) string {
	return "profileimg:" + strconv.FormatUint(uint64(userID), 10)
}

// Invalidate drops a key. A nil client makes this a no-op.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateUser drops the cached user record after a write.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateRoom drops the cached room record after a write.
func InvalidateRoom(ctx context.Context, roomID uint) {
	Invalidate(ctx, RoomKey(roomID))
}
