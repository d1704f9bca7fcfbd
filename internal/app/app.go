package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/templui/muzer/internal/cache"
	"github.com/templui/muzer/internal/config"
	"github.com/templui/muzer/internal/db"
	"github.com/templui/muzer/internal/middleware"
	"github.com/templui/muzer/internal/repository"
	"github.com/templui/muzer/internal/service"
	"github.com/templui/muzer/internal/youtube"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	Redis         *goredis.Client
	AuthService   *service.AuthService
	UserService   *service.UserService
	StreamService *service.StreamService
	VoteService   *service.VoteService
	VoteLimiter   middleware.Limiter
	SubmitLimiter middleware.Limiter
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	a, err := Build(ctx, cfg, database)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return a, nil
}

// Build wires repositories and services on an open, migrated database.
// Redis and the YouTube client are optional and enabled by configuration.
func Build(ctx context.Context, cfg *config.Config, database *sqlx.DB) (*App, error) {
	a := &App{Cfg: cfg, DB: database}

	if cfg.RedisEnabled() {
		client, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %v", err)
		}
		a.Redis = client
	}

	var videos service.VideoLookup
	if cfg.YouTubeAPIKey != "" {
		client, err := youtube.New(ctx, cfg.YouTubeAPIKey, cfg.YouTubeEndpoint, cfg.MetadataTimeout)
		if err != nil {
			a.closeRedis()
			return nil, fmt.Errorf("failed to initialize youtube client: %v", err)
		}
		videos = client
		if a.Redis != nil {
			videos = cache.NewVideoCache(a.Redis, client, cfg.MetadataCacheTTL)
		}
	} else {
		slog.Warn("YOUTUBE_API_KEY not set, stream submissions will fail")
	}

	if a.Redis != nil {
		a.VoteLimiter = cache.NewWindowLimiter(a.Redis, "vote", cfg.VoteRateLimit, cfg.VoteRateWindow)
		a.SubmitLimiter = cache.NewWindowLimiter(a.Redis, "submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	} else {
		a.VoteLimiter = middleware.NewRateLimiter(cfg.VoteRateLimit, cfg.VoteRateWindow)
		a.SubmitLimiter = middleware.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	streamRepository := repository.NewStreamRepository(database)
	voteRepository := repository.NewVoteRepository(database)
	currentStreamRepository := repository.NewCurrentStreamRepository(database)

	// Services
	a.AuthService = service.NewAuthService(userRepository, cfg.JWTSecret, cfg.IsProduction(), cfg.JWTExpiry)
	a.UserService = service.NewUserService(userRepository)
	a.StreamService = service.NewStreamService(database, streamRepository, voteRepository, currentStreamRepository, videos)
	a.VoteService = service.NewVoteService(database, voteRepository)

	return a, nil
}

func (a *App) closeRedis() {
	if a.Redis != nil {
		err := a.Redis.Close()
		if err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
		a.Redis = nil
	}
}

func (a *App) Close() error {
	a.closeRedis()
	return db.Close(a.DB)
}
