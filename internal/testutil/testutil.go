// Package testutil holds fixtures shared by repository, service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/muzer/internal/db"
	"github.com/templui/muzer/internal/model"
)

// SetupTestDB opens a migrated SQLite database in a temp dir. A single
// connection keeps write transactions serialised the way production SQLite
// behaves under immediate locking.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "muzer_test.db")
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate", path)

	conn, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	conn.SetMaxOpenConns(1)

	err = db.RunMigrations(conn.DB, "sqlite")
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func CreateTestUser(t *testing.T, conn *sqlx.DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Provider:  model.ProviderGoogle,
		CreatedAt: time.Now().UTC(),
	}
	_, err := conn.Exec(`INSERT INTO users (id, email, provider, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.Provider, user.CreatedAt)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// CreateTestStream inserts a stream with the given id; pass "" to get a
// time-ordered id.
func CreateTestStream(t *testing.T, conn *sqlx.DB, creatorID, id string) *model.Stream {
	t.Helper()

	if id == "" {
		v7, err := uuid.NewV7()
		if err != nil {
			t.Fatalf("stream id: %v", err)
		}
		id = v7.String()
	}

	stream := &model.Stream{
		ID:          id,
		UserID:      creatorID,
		Type:        model.StreamTypeYoutube,
		URL:         "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		ExtractedID: "dQw4w9WgXcQ",
		Title:       "Track " + id,
		SmallImg:    "https://i.ytimg.com/vi/dQw4w9WgXcQ/mqdefault.jpg",
		BigImg:      "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := conn.Exec(`INSERT INTO streams (id, user_id, type, url, extracted_id, title, small_img, big_img, active, created_at)
	                     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		stream.ID, stream.UserID, stream.Type, stream.URL, stream.ExtractedID,
		stream.Title, stream.SmallImg, stream.BigImg, stream.Active, stream.CreatedAt)
	if err != nil {
		t.Fatalf("create stream %s: %v", id, err)
	}
	return stream
}

func AddTestVote(t *testing.T, conn *sqlx.DB, userID, streamID string) {
	t.Helper()

	_, err := conn.Exec(`INSERT INTO upvotes (user_id, stream_id, created_at) VALUES ($1, $2, $3)`,
		userID, streamID, time.Now().UTC())
	if err != nil {
		t.Fatalf("add vote %s/%s: %v", userID, streamID, err)
	}
}

// AddTestVoters creates n fresh users that each upvote streamID.
func AddTestVoters(t *testing.T, conn *sqlx.DB, streamID string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		voter := CreateTestUser(t, conn, fmt.Sprintf("voter-%s-%d@example.com", streamID, i))
		AddTestVote(t, conn, voter.ID, streamID)
	}
}

func CountVotes(t *testing.T, conn *sqlx.DB, streamID string) int {
	t.Helper()

	var n int
	err := conn.GetContext(context.Background(), &n, `SELECT COUNT(*) FROM upvotes WHERE stream_id = $1`, streamID)
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	return n
}
