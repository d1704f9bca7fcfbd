package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/muzer/internal/model"
)

var (
	ErrStreamNotFound = errors.New("stream not found")
)

const streamColumns = `s.id, s.user_id, s.type, s.url, s.extracted_id, s.title, s.small_img, s.big_img, s.active, s.created_at`

type StreamRepository interface {
	WithTx(tx *sqlx.Tx) StreamRepository
	Create(ctx context.Context, stream *model.Stream) error
	ByID(ctx context.Context, id string) (*model.Stream, error)
	// Queue returns a creator's pending streams ordered by id, with vote counts
	// and whether viewerID has voted. An empty viewerID never matches a vote.
	Queue(ctx context.Context, creatorID, viewerID string) ([]*model.QueuedStream, error)
	Delete(ctx context.Context, id string) error
}

type streamRepository struct {
	db Querier
}

func NewStreamRepository(db *sqlx.DB) StreamRepository {
	return &streamRepository{db: db}
}

func (r *streamRepository) WithTx(tx *sqlx.Tx) StreamRepository {
	return &streamRepository{db: tx}
}

func (r *streamRepository) Create(ctx context.Context, stream *model.Stream) error {
	query := `INSERT INTO streams (id, user_id, type, url, extracted_id, title, small_img, big_img, active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		stream.ID,
		stream.UserID,
		stream.Type,
		stream.URL,
		stream.ExtractedID,
		stream.Title,
		stream.SmallImg,
		stream.BigImg,
		stream.Active,
		stream.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}

	return err
}

func (r *streamRepository) ByID(ctx context.Context, id string) (*model.Stream, error) {
	stream := &model.Stream{}
	query := `SELECT ` + streamColumns + ` FROM streams s WHERE s.id = $1`

	err := r.db.GetContext(ctx, stream, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStreamNotFound
	}
	if err != nil {
		return nil, err
	}

	return stream, nil
}

func (r *streamRepository) Queue(ctx context.Context, creatorID, viewerID string) ([]*model.QueuedStream, error) {
	streams := []*model.QueuedStream{}
	query := `SELECT ` + streamColumns + `,
	                 (SELECT COUNT(*) FROM upvotes u WHERE u.stream_id = s.id) AS upvotes,
	                 EXISTS (SELECT 1 FROM upvotes u WHERE u.stream_id = s.id AND u.user_id = $1) AS have_upvoted
	          FROM streams s
	          WHERE s.user_id = $2
	          ORDER BY s.id ASC`

	err := r.db.SelectContext(ctx, &streams, query, viewerID, creatorID)
	if err != nil {
		return nil, err
	}

	return streams, nil
}

func (r *streamRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM streams WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStreamNotFound
	}

	return nil
}
