package model

import (
	"time"
)

type UpVote struct {
	UserID    string    `db:"user_id"`
	StreamID  string    `db:"stream_id"`
	CreatedAt time.Time `db:"created_at"`
}

// CurrentStream points at the stream a creator most recently promoted to now playing.
type CurrentStream struct {
	UserID    string    `db:"user_id"`
	StreamID  *string   `db:"stream_id"`
	UpdatedAt time.Time `db:"updated_at"`
}
