package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideMissThenHit(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	loads := 0
	var got cachedThing
	load := func() error {
		loads++
		got = cachedThing{ID: 7, Name: "games"}
		return nil
	}

	if err := Aside(ctx, "thing:7", &got, time.Minute, load); err != nil {
		t.Fatalf("first Aside: %v", err)
	}
	if loads != 1 {
		t.Fatalf("expected 1 load, got %d", loads)
	}

	got = cachedThing{}
	if err := Aside(ctx, "thing:7", &got, time.Minute, load); err != nil {
		t.Fatalf("second Aside: %v", err)
	}
	if loads != 1 {
		t.Fatalf("expected cache hit, loader ran %d times", loads)
	}
	if got.ID != 7 || got.Name != "games" {
		t.Fatalf("unexpected cached value: %+v", got)
	}
}

func TestAsideExpiry(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	loads := 0
	var got cachedThing
	load := func() error {
		loads++
		got = cachedThing{ID: 1}
		return nil
	}

	if err := Aside(ctx, "thing:1", &got, time.Minute, load); err != nil {
		t.Fatalf("Aside: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if err := Aside(ctx, "thing:1", &got, time.Minute, load); err != nil {
		t.Fatalf("Aside after expiry: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected reload after expiry, got %d loads", loads)
	}
}

func TestAsideWithoutRedis(t *testing.T) {
	SetClient(nil)

	loads := 0
	var got cachedThing
	load := func() error {
		loads++
		got = cachedThing{ID: 2}
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := Aside(context.Background(), "thing:2", &got, time.Minute, load); err != nil {
			t.Fatalf("Aside without redis: %v", err)
		}
	}
	if loads != 3 {
		t.Fatalf("expected loader on every call without redis, got %d", loads)
	}
}

func TestStringRoundTrip(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	if _, ok := GetString(ctx, ProfileImageKey(4)); ok {
		t.Fatal("expected miss before set")
	}
	SetString(ctx, ProfileImageKey(4), "https://signed.example/4.img", time.Hour)
	val, ok := GetString(ctx, ProfileImageKey(4))
	if !ok || val != "https://signed.example/4.img" {
		t.Fatalf("unexpected value: %q ok=%v", val, ok)
	}

	InvalidateProfileImage(ctx, 4)
	if _, ok := GetString(ctx, ProfileImageKey(4)); ok {
		t.Fatal("expected miss after invalidate")
	}
}
