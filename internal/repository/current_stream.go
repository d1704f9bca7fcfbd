package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/muzer/internal/model"
)

var (
	ErrCurrentStreamNotFound = errors.New("current stream not found")
)

type CurrentStreamRepository interface {
	WithTx(tx *sqlx.Tx) CurrentStreamRepository
	ByUserID(ctx context.Context, userID string) (*model.CurrentStream, error)
	Upsert(ctx context.Context, userID, streamID string) error
	// ClearStream drops every pointer naming streamID.
	ClearStream(ctx context.Context, streamID string) (int64, error)
}

type currentStreamRepository struct {
	db Querier
}

func NewCurrentStreamRepository(db *sqlx.DB) CurrentStreamRepository {
	return &currentStreamRepository{db: db}
}

func (r *currentStreamRepository) WithTx(tx *sqlx.Tx) CurrentStreamRepository {
	return &currentStreamRepository{db: tx}
}

func (r *currentStreamRepository) ByUserID(ctx context.Context, userID string) (*model.CurrentStream, error) {
	current := &model.CurrentStream{}
	query := `SELECT user_id, stream_id, updated_at FROM current_streams WHERE user_id = $1`

	err := r.db.GetContext(ctx, current, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCurrentStreamNotFound
	}
	if err != nil {
		return nil, err
	}

	return current, nil
}

func (r *currentStreamRepository) Upsert(ctx context.Context, userID, streamID string) error {
	query := `INSERT INTO current_streams (user_id, stream_id, updated_at) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id) DO UPDATE SET stream_id = excluded.stream_id, updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, userID, streamID, time.Now().UTC())
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}

	return err
}

func (r *currentStreamRepository) ClearStream(ctx context.Context, streamID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM current_streams WHERE stream_id = $1`, streamID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
