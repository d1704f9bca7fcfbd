package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/templui/muzer/internal/youtube"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

type fakeSource struct {
	calls atomic.Int32
	video *youtube.Video
	err   error
}

func (f *fakeSource) Video(ctx context.Context, id string) (*youtube.Video, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.video, nil
}

func TestNewParsesURL(t *testing.T) {
	mr, _ := newMiniRedisClient(t)

	client, err := New(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = client.Close() }()

	if _, err := New(context.Background(), "not a url"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestVideoCacheHitsSourceOnce(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	source := &fakeSource{video: &youtube.Video{
		ID:         "dQw4w9WgXcQ",
		Title:      "Never Gonna Give You Up",
		Thumbnails: []youtube.Thumbnail{{URL: "hq", Width: 480}, {URL: "max", Width: 1280}},
	}}
	cache := NewVideoCache(client, source, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		video, err := cache.Video(ctx, "dQw4w9WgXcQ")
		if err != nil {
			t.Fatalf("lookup #%d: %v", i+1, err)
		}
		if video.Title != "Never Gonna Give You Up" || len(video.Thumbnails) != 2 {
			t.Fatalf("unexpected video on lookup #%d: %+v", i+1, video)
		}
	}

	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected one source call, got %d", got)
	}
	if ttl := mr.TTL(videoKeyPrefix + "dQw4w9WgXcQ"); ttl != time.Hour {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := cache.Video(ctx, "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("lookup after expiry: %v", err)
	}
	if got := source.calls.Load(); got != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", got)
	}
}

func TestVideoCacheDoesNotStoreMisses(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	source := &fakeSource{err: youtube.ErrVideoNotFound}
	cache := NewVideoCache(client, source, time.Hour)

	_, err := cache.Video(context.Background(), "xxxxxxxxxxx")
	if !errors.Is(err, youtube.ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}
	if mr.Exists(videoKeyPrefix + "xxxxxxxxxxx") {
		t.Fatal("miss should not be cached")
	}
}

func TestVideoCacheFallsThroughWhenRedisDown(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	source := &fakeSource{video: &youtube.Video{ID: "dQw4w9WgXcQ", Title: "T"}}
	cache := NewVideoCache(client, source, time.Hour)

	mr.Close()

	video, err := cache.Video(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("expected lookup to succeed without redis: %v", err)
	}
	if video.Title != "T" {
		t.Fatalf("unexpected video %+v", video)
	}
}

func TestWindowLimiter(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	limiter := NewWindowLimiter(client, "vote", 2, 10*time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "user-1")
		if err != nil || !allowed {
			t.Fatalf("hit #%d: allowed=%v err=%v", i+1, allowed, err)
		}
	}

	allowed, err := limiter.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("hit #3: %v", err)
	}
	if allowed {
		t.Fatal("expected third hit in window to be blocked")
	}

	allowed, err = limiter.Allow(ctx, "user-2")
	if err != nil || !allowed {
		t.Fatalf("other key should be independent: allowed=%v err=%v", allowed, err)
	}

	mr.FastForward(11 * time.Second)

	allowed, err = limiter.Allow(ctx, "user-1")
	if err != nil || !allowed {
		t.Fatalf("expected new window to allow: allowed=%v err=%v", allowed, err)
	}
}
