package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/templui/muzer/internal/youtube"
)

const videoKeyPrefix = "yt:video:"

// VideoSource is anything that can resolve a video id, usually *youtube.Client.
type VideoSource interface {
	Video(ctx context.Context, id string) (*youtube.Video, error)
}

// VideoCache serves lookups from Redis and falls back to the source on a miss.
// Redis failures are logged and never fail the lookup. Not-found answers are
// not cached.
type VideoCache struct {
	client *goredis.Client
	source VideoSource
	ttl    time.Duration
}

func NewVideoCache(client *goredis.Client, source VideoSource, ttl time.Duration) *VideoCache {
	return &VideoCache{client: client, source: source, ttl: ttl}
}

func (c *VideoCache) Video(ctx context.Context, id string) (*youtube.Video, error) {
	key := videoKeyPrefix + id

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		video := &youtube.Video{}
		if jsonErr := json.Unmarshal(raw, video); jsonErr == nil {
			return video, nil
		}
		slog.Warn("discarding corrupt cached video", "video_id", id)
	case !errors.Is(err, goredis.Nil):
		slog.Warn("video cache read failed", "video_id", id, "error", err)
	}

	video, err := c.source.Video(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(video)
	if err == nil {
		err = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		slog.Warn("video cache write failed", "video_id", id, "error", err)
	}

	return video, nil
}
