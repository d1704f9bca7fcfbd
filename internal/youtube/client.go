// Package youtube looks up video metadata through the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

var ErrVideoNotFound = errors.New("video not found")

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
}

type Video struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Thumbnails []Thumbnail `json:"thumbnails"`
}

// Images picks the queue artwork: big is the widest thumbnail, small the
// second widest. A single thumbnail serves as both.
func (v *Video) Images() (small, big string) {
	if len(v.Thumbnails) == 0 {
		return "", ""
	}

	thumbs := make([]Thumbnail, len(v.Thumbnails))
	copy(thumbs, v.Thumbnails)
	sort.SliceStable(thumbs, func(i, j int) bool { return thumbs[i].Width < thumbs[j].Width })

	big = thumbs[len(thumbs)-1].URL
	small = big
	if len(thumbs) > 1 {
		small = thumbs[len(thumbs)-2].URL
	}
	return small, big
}

type Client struct {
	svc     *ytapi.Service
	timeout time.Duration
}

// New creates an API-key authenticated client. endpoint overrides the API base
// URL and may be empty.
func New(ctx context.Context, apiKey, endpoint string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("youtube api key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{svc: svc, timeout: timeout}, nil
}

func (c *Client) Video(ctx context.Context, id string) (*Video, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list %s: %w", id, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, ErrVideoNotFound
	}

	snippet := resp.Items[0].Snippet
	video := &Video{ID: resp.Items[0].Id, Title: snippet.Title}

	if set := snippet.Thumbnails; set != nil {
		for _, th := range []*ytapi.Thumbnail{set.Default, set.Medium, set.High, set.Standard, set.Maxres} {
			if th == nil || th.Url == "" {
				continue
			}
			video.Thumbnails = append(video.Thumbnails, Thumbnail{URL: th.Url, Width: th.Width, Height: th.Height})
		}
	}

	return video, nil
}
