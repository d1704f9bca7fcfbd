package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/templui/muzer/internal/cache"
	"github.com/templui/muzer/internal/config"
	"github.com/templui/muzer/internal/middleware"
	"github.com/templui/muzer/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:           "development",
		AppURL:           "http://localhost:8090",
		JWTSecret:        "test-secret",
		JWTExpiry:        time.Hour,
		MetadataTimeout:  time.Second,
		MetadataCacheTTL: time.Minute,
		VoteRateLimit:    3,
		VoteRateWindow:   time.Minute,
		SubmitRateLimit:  3,
		SubmitRateWindow: time.Minute,
	}
}

func TestBuildWithoutRedis(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), testutil.SetupTestDB(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if a.Redis != nil {
		t.Fatal("redis should stay disabled")
	}
	if _, ok := a.VoteLimiter.(*middleware.RateLimiter); !ok {
		t.Fatalf("vote limiter = %T, want in-memory", a.VoteLimiter)
	}
	if a.StreamService == nil || a.VoteService == nil || a.AuthService == nil || a.UserService == nil {
		t.Fatal("services not wired")
	}
}

func TestBuildWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.YouTubeAPIKey = "key"

	a, err := Build(context.Background(), cfg, testutil.SetupTestDB(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { a.closeRedis() })

	if a.Redis == nil {
		t.Fatal("expected redis client")
	}
	if _, ok := a.SubmitLimiter.(*cache.WindowLimiter); !ok {
		t.Fatalf("submit limiter = %T, want redis window", a.SubmitLimiter)
	}

	for i := 0; i < 3; i++ {
		ok, err := a.VoteLimiter.Allow(context.Background(), "user:1")
		if err != nil || !ok {
			t.Fatalf("attempt %d: allowed=%v err=%v", i, ok, err)
		}
	}
	ok, err := a.VoteLimiter.Allow(context.Background(), "user:1")
	if err != nil || ok {
		t.Fatalf("fourth attempt: allowed=%v err=%v", ok, err)
	}
}

func TestBuildFailsOnUnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := Build(context.Background(), cfg, testutil.SetupTestDB(t))
	if err == nil {
		t.Fatal("expected redis error")
	}
}
