package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrDuplicateVote = errors.New("vote already exists")
	ErrVoteNotFound  = errors.New("vote not found")
)

type VoteRepository interface {
	WithTx(tx *sqlx.Tx) VoteRepository
	Create(ctx context.Context, userID, streamID string) error
	Exists(ctx context.Context, userID, streamID string) (bool, error)
	Delete(ctx context.Context, userID, streamID string) error
	DeleteByStream(ctx context.Context, streamID string) (int64, error)
	CountByStream(ctx context.Context, streamID string) (int, error)
}

type voteRepository struct {
	db Querier
}

func NewVoteRepository(db *sqlx.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) WithTx(tx *sqlx.Tx) VoteRepository {
	return &voteRepository{db: tx}
}

// Create records an upvote. The (user_id, stream_id) primary key turns a
// second vote into ErrDuplicateVote; a missing stream surfaces as
// ErrStreamNotFound.
func (r *voteRepository) Create(ctx context.Context, userID, streamID string) error {
	query := `INSERT INTO upvotes (user_id, stream_id, created_at) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, userID, streamID, time.Now().UTC())
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrDuplicateVote
	case isForeignKeyViolation(err):
		return ErrStreamNotFound
	default:
		return err
	}
}

func (r *voteRepository) Exists(ctx context.Context, userID, streamID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM upvotes WHERE user_id = $1 AND stream_id = $2)`

	err := r.db.GetContext(ctx, &exists, query, userID, streamID)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *voteRepository) Delete(ctx context.Context, userID, streamID string) error {
	query := `DELETE FROM upvotes WHERE user_id = $1 AND stream_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, streamID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVoteNotFound
	}

	return nil
}

func (r *voteRepository) DeleteByStream(ctx context.Context, streamID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM upvotes WHERE stream_id = $1`, streamID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *voteRepository) CountByStream(ctx context.Context, streamID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM upvotes WHERE stream_id = $1`, streamID)
	return count, err
}
