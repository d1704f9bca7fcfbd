package model

import (
	"time"
)

const (
	StreamTypeYoutube = "Youtube"
)

// Stream is a submitted track waiting in a creator's queue.
type Stream struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Type        string    `db:"type" json:"type"`
	URL         string    `db:"url" json:"url"`
	ExtractedID string    `db:"extracted_id" json:"extractedId"`
	Title       string    `db:"title" json:"title"`
	SmallImg    string    `db:"small_img" json:"smallImg"`
	BigImg      string    `db:"big_img" json:"bigImg"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// QueuedStream is a Stream annotated with its vote tally as seen by one viewer.
type QueuedStream struct {
	Stream
	Upvotes     int  `db:"upvotes" json:"upvotes"`
	HaveUpvoted bool `db:"have_upvoted" json:"haveUpvoted"`
}
