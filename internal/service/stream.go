package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/muzer/internal/db"
	"github.com/templui/muzer/internal/model"
	"github.com/templui/muzer/internal/queue"
	"github.com/templui/muzer/internal/repository"
	"github.com/templui/muzer/internal/validation"
	"github.com/templui/muzer/internal/youtube"
)

// VideoLookup resolves video metadata by id. Both *youtube.Client and
// *cache.VideoCache satisfy it.
type VideoLookup interface {
	Video(ctx context.Context, id string) (*youtube.Video, error)
}

type StreamService struct {
	db                      *sqlx.DB
	streamRepository        repository.StreamRepository
	voteRepository          repository.VoteRepository
	currentStreamRepository repository.CurrentStreamRepository
	videos                  VideoLookup
}

// NewStreamService wires the catalog. videos may be nil when no API key is
// configured; Submit then fails with ErrUpstreamConfig.
func NewStreamService(
	db *sqlx.DB,
	streamRepository repository.StreamRepository,
	voteRepository repository.VoteRepository,
	currentStreamRepository repository.CurrentStreamRepository,
	videos VideoLookup,
) *StreamService {
	return &StreamService{
		db:                      db,
		streamRepository:        streamRepository,
		voteRepository:          voteRepository,
		currentStreamRepository: currentStreamRepository,
		videos:                  videos,
	}
}

func (s *StreamService) Submit(ctx context.Context, creatorID, url string) (*model.Stream, error) {
	videoID, err := validation.ExtractVideoID(url)
	if err != nil {
		return nil, ErrInvalidURL
	}

	if s.videos == nil {
		return nil, ErrUpstreamConfig
	}

	video, err := s.videos.Video(ctx, videoID)
	if errors.Is(err, youtube.ErrVideoNotFound) {
		return nil, ErrMetadataUnavailable
	}
	if err != nil {
		slog.Error("video metadata lookup failed", "error", err, "video_id", videoID)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate stream id: %w", err)
	}

	small, big := video.Images()
	stream := &model.Stream{
		ID:          id.String(),
		UserID:      creatorID,
		Type:        model.StreamTypeYoutube,
		URL:         url,
		ExtractedID: videoID,
		Title:       video.Title,
		SmallImg:    small,
		BigImg:      big,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.streamRepository.Create(ctx, stream)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	slog.Info("stream submitted", "stream_id", stream.ID, "creator_id", creatorID, "video_id", videoID)
	return stream, nil
}

// ListByCreator returns a creator's pending streams. viewerID may be empty
// for anonymous viewers.
func (s *StreamService) ListByCreator(ctx context.Context, creatorID, viewerID string) ([]*model.QueuedStream, error) {
	streams, err := s.streamRepository.Queue(ctx, creatorID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	return streams, nil
}

func (s *StreamService) MyQueue(ctx context.Context, userID string) ([]*model.QueuedStream, error) {
	return s.ListByCreator(ctx, userID, userID)
}

// Delete removes a stream owned by requesterID together with its votes and
// any now-playing pointer naming it.
func (s *StreamService) Delete(ctx context.Context, streamID, requesterID string) error {
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		streams := s.streamRepository.WithTx(tx)

		stream, err := streams.ByID(ctx, streamID)
		if errors.Is(err, repository.ErrStreamNotFound) {
			return ErrStreamNotFound
		}
		if err != nil {
			return err
		}
		if stream.UserID != requesterID {
			return ErrForbidden
		}

		_, err = s.voteRepository.WithTx(tx).DeleteByStream(ctx, streamID)
		if err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}

		_, err = s.currentStreamRepository.WithTx(tx).ClearStream(ctx, streamID)
		if err != nil {
			return fmt.Errorf("failed to clear current stream: %w", err)
		}

		err = streams.Delete(ctx, streamID)
		if errors.Is(err, repository.ErrStreamNotFound) {
			return ErrStreamNotFound
		}
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("stream deleted", "stream_id", streamID, "user_id", requesterID)
	return nil
}

// Advance promotes the creator's next stream to now playing and removes it
// from the queue. The returned stream carries its tally from before removal.
func (s *StreamService) Advance(ctx context.Context, creatorID string) (*model.QueuedStream, error) {
	var chosen *model.QueuedStream

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		candidates, err := s.streamRepository.WithTx(tx).Queue(ctx, creatorID, creatorID)
		if err != nil {
			return fmt.Errorf("failed to load queue: %w", err)
		}
		if len(candidates) == 0 {
			return ErrEmptyQueue
		}

		pointers := s.currentStreamRepository.WithTx(tx)

		currentID := ""
		current, err := pointers.ByUserID(ctx, creatorID)
		switch {
		case err == nil:
			if current.StreamID != nil {
				currentID = *current.StreamID
			}
		case !errors.Is(err, repository.ErrCurrentStreamNotFound):
			return fmt.Errorf("failed to load current stream: %w", err)
		}

		chosen = queue.Select(candidates, currentID)

		err = pointers.Upsert(ctx, creatorID, chosen.ID)
		if err != nil {
			return fmt.Errorf("failed to set current stream: %w", err)
		}

		_, err = s.voteRepository.WithTx(tx).DeleteByStream(ctx, chosen.ID)
		if err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}

		err = s.streamRepository.WithTx(tx).Delete(ctx, chosen.ID)
		if errors.Is(err, repository.ErrStreamNotFound) {
			return ErrQueueContended
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("queue advanced", "creator_id", creatorID, "stream_id", chosen.ID, "upvotes", chosen.Upvotes)
	return chosen, nil
}
