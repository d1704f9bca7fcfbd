package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/templui/muzer/internal/db"
	"github.com/templui/muzer/internal/repository"
)

type VoteService struct {
	db             *sqlx.DB
	voteRepository repository.VoteRepository
}

func NewVoteService(db *sqlx.DB, voteRepository repository.VoteRepository) *VoteService {
	return &VoteService{db: db, voteRepository: voteRepository}
}

// Upvote records one vote per user and stream. Concurrent duplicates race on
// the primary key and the loser gets ErrAlreadyVoted.
func (s *VoteService) Upvote(ctx context.Context, userID, streamID string) error {
	err := s.voteRepository.Create(ctx, userID, streamID)
	switch {
	case errors.Is(err, repository.ErrDuplicateVote):
		return ErrAlreadyVoted
	case errors.Is(err, repository.ErrStreamNotFound):
		return ErrStreamNotFound
	case err != nil:
		return fmt.Errorf("failed to upvote: %w", err)
	}

	slog.Info("stream upvoted", "user_id", userID, "stream_id", streamID)
	return nil
}

func (s *VoteService) Downvote(ctx context.Context, userID, streamID string) error {
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		votes := s.voteRepository.WithTx(tx)

		exists, err := votes.Exists(ctx, userID, streamID)
		if err != nil {
			return fmt.Errorf("failed to check vote: %w", err)
		}
		if !exists {
			return ErrVoteNotFound
		}

		err = votes.Delete(ctx, userID, streamID)
		if errors.Is(err, repository.ErrVoteNotFound) {
			return ErrVoteNotFound
		}
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("stream downvoted", "user_id", userID, "stream_id", streamID)
	return nil
}

func (s *VoteService) Count(ctx context.Context, streamID string) (int, error) {
	count, err := s.voteRepository.CountByStream(ctx, streamID)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}
