package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/muzer/internal/model"
	"github.com/templui/muzer/internal/repository"
	"github.com/templui/muzer/internal/testutil"
	"github.com/templui/muzer/internal/youtube"
)

type fakeVideos struct {
	video *youtube.Video
	err   error
	calls int
}

func (f *fakeVideos) Video(ctx context.Context, id string) (*youtube.Video, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.video, nil
}

func newStreamService(conn *sqlx.DB, videos VideoLookup) *StreamService {
	return NewStreamService(
		conn,
		repository.NewStreamRepository(conn),
		repository.NewVoteRepository(conn),
		repository.NewCurrentStreamRepository(conn),
		videos,
	)
}

func rickroll() *youtube.Video {
	return &youtube.Video{
		ID:    "dQw4w9WgXcQ",
		Title: "Never Gonna Give You Up",
		Thumbnails: []youtube.Thumbnail{
			{URL: "default.jpg", Width: 120},
			{URL: "maxres.jpg", Width: 1280},
			{URL: "hq.jpg", Width: 480},
		},
	}
}

func TestSubmit(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	creator := testutil.CreateTestUser(t, conn, "creator@example.com")
	videos := &fakeVideos{video: rickroll()}
	svc := newStreamService(conn, videos)
	ctx := context.Background()

	stream, err := svc.Submit(ctx, creator.ID, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=1s")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if stream.ExtractedID != "dQw4w9WgXcQ" || stream.Type != model.StreamTypeYoutube || !stream.Active {
		t.Errorf("unexpected stream: %+v", stream)
	}
	if stream.SmallImg != "hq.jpg" || stream.BigImg != "maxres.jpg" {
		t.Errorf("unexpected images: small=%q big=%q", stream.SmallImg, stream.BigImg)
	}

	queue, err := svc.ListByCreator(ctx, creator.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != stream.ID || queue[0].Title != "Never Gonna Give You Up" {
		t.Fatalf("unexpected queue: %+v", queue)
	}
}

func TestSubmitFailures(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	creator := testutil.CreateTestUser(t, conn, "creator@example.com")
	ctx := context.Background()
	validURL := "https://youtu.be/dQw4w9WgXcQ"

	tests := []struct {
		name      string
		videos    VideoLookup
		creatorID string
		url       string
		want      error
	}{
		{"non youtube url", &fakeVideos{video: rickroll()}, creator.ID, "https://example.com/video", ErrInvalidURL},
		{"missing api key", nil, creator.ID, validURL, ErrUpstreamConfig},
		{"unknown video", &fakeVideos{err: youtube.ErrVideoNotFound}, creator.ID, validURL, ErrMetadataUnavailable},
		{"upstream failure", &fakeVideos{err: errors.New("quota exceeded")}, creator.ID, validURL, ErrUpstream},
		{"unknown creator", &fakeVideos{video: rickroll()}, "nobody", validURL, ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStreamService(conn, tt.videos)
			_, err := svc.Submit(ctx, tt.creatorID, tt.url)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Submit() error = %v, want %v", err, tt.want)
			}
		})
	}

	queue, err := newStreamService(conn, nil).ListByCreator(ctx, creator.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(queue) != 0 {
		t.Fatalf("failed submissions wrote %d streams", len(queue))
	}
}

func TestSubmitInvalidURLSkipsLookup(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	videos := &fakeVideos{video: rickroll()}
	svc := newStreamService(conn, videos)

	_, err := svc.Submit(context.Background(), "anyone", "https://vimeo.com/123")
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if videos.calls != 0 {
		t.Fatalf("metadata looked up for invalid url")
	}
}

func TestAdvancePicksHighestVoted(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	creator := testutil.CreateTestUser(t, conn, "creator@example.com")
	svc := newStreamService(conn, nil)
	ctx := context.Background()

	for id, votes := range map[string]int{"A": 3, "B": 5, "C": 5} {
		testutil.CreateTestStream(t, conn, creator.ID, id)
		testutil.AddTestVoters(t, conn, id, votes)
	}

	next, err := svc.Advance(ctx, creator.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.ID != "B" || next.Upvotes != 5 {
		t.Fatalf("expected B with 5 votes, got %s with %d", next.ID, next.Upvotes)
	}

	queue, err := svc.ListByCreator(ctx, creator.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, s := range queue {
		if s.ID == "B" {
			t.Fatal("advanced stream still listed")
		}
	}
	if len(queue) != 2 {
		t.Fatalf("expected 2 remaining streams, got %d", len(queue))
	}

	current, err := repository.NewCurrentStreamRepository(conn).ByUserID(ctx, creator.ID)
	if err != nil {
		t.Fatalf("current stream: %v", err)
	}
	if current.StreamID == nil || *current.StreamID != "B" {
		t.Fatalf("expected current stream B, got %v", current.StreamID)
	}
	if n := testutil.CountVotes(t, conn, "B"); n != 0 {
		t.Fatalf("expected votes of played stream removed, got %d", n)
	}
}

func TestAdvanceRotatesPastCurrent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	creator := testutil.CreateTestUser(t, conn, "creator@example.com")
	svc := newStreamService(conn, nil)
	ctx := context.Background()

	for _, id := range []string{"S1", "S2"} {
		testutil.CreateTestStream(t, conn, creator.ID, id)
		testutil.AddTestVoters(t, conn, id, 2)
	}
	err := repository.NewCurrentStreamRepository(conn).Upsert(ctx, creator.ID, "S1")
	if err != nil {
		t.Fatalf("seed pointer: %v", err)
	}

	next, err := svc.Advance(ctx, creator.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.ID != "S2" {
		t.Fatalf("expected S2, got %s", next.ID)
	}

	next, err = svc.Advance(ctx, creator.ID)
	if err != nil {
		t.Fatalf("second advance: %v", err)
	}
	if next.ID != "S1" {
		t.Fatalf("expected S1, got %s", next.ID)
	}

	_, err = svc.Advance(ctx, creator.ID)
	if !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("expected ErrEmptyQueue, got %v", err)
	}
}

func TestAdvanceDrainsTiedQueueInIDOrder(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	creator := testutil.CreateTestUser(t, conn, "creator@example.com")
	svc := newStreamService(conn, nil)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "d", "b"} {
		testutil.CreateTestStream(t, conn, creator.ID, id)
	}

	var played []string
	for i := 0; i < 4; i++ {
		next, err := svc.Advance(ctx, creator.ID)
		if err != nil {
			t.Fatalf("advance #%d: %v", i+1, err)
		}
		played = append(played, next.ID)
	}

	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if played[i] != want[i] {
			t.Fatalf("played %v, want %v", played, want)
		}
	}
}

func TestAdvanceIsolatedPerCreator(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, conn, "alice@example.com")
	bob := testutil.CreateTestUser(t, conn, "bob@example.com")
	svc := newStreamService(conn, nil)

	testutil.CreateTestStream(t, conn, bob.ID, "bob-track")

	_, err := svc.Advance(context.Background(), alice.ID)
	if !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("expected ErrEmptyQueue for alice, got %v", err)
	}
}

func TestConcurrentAdvanceNeverRepeats(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	creator := testutil.CreateTestUser(t, conn, "creator@example.com")
	svc := newStreamService(conn, nil)

	const streams = 5
	for i := 0; i < streams; i++ {
		testutil.CreateTestStream(t, conn, creator.ID, "")
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		played = map[string]int{}
		failed atomic.Int32
	)

	for i := 0; i < streams*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next, err := svc.Advance(context.Background(), creator.ID)
			if err != nil {
				if !errors.Is(err, ErrEmptyQueue) && !errors.Is(err, ErrQueueContended) {
					t.Errorf("unexpected advance error: %v", err)
				}
				failed.Add(1)
				return
			}
			mu.Lock()
			played[next.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(played) != streams {
		t.Fatalf("expected %d distinct streams played, got %d", streams, len(played))
	}
	for id, n := range played {
		if n != 1 {
			t.Errorf("stream %s played %d times", id, n)
		}
	}
	if failed.Load() != streams {
		t.Errorf("expected %d failed advances, got %d", streams, failed.Load())
	}
}

func TestDelete(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	owner := testutil.CreateTestUser(t, conn, "owner@example.com")
	stranger := testutil.CreateTestUser(t, conn, "stranger@example.com")
	svc := newStreamService(conn, nil)
	ctx := context.Background()

	stream := testutil.CreateTestStream(t, conn, owner.ID, "")
	testutil.AddTestVoters(t, conn, stream.ID, 3)
	err := repository.NewCurrentStreamRepository(conn).Upsert(ctx, owner.ID, stream.ID)
	if err != nil {
		t.Fatalf("seed pointer: %v", err)
	}

	if err := svc.Delete(ctx, "missing", owner.ID); !errors.Is(err, ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, stream.ID, stranger.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if n := testutil.CountVotes(t, conn, stream.ID); n != 3 {
		t.Fatalf("forbidden delete touched votes: %d left", n)
	}

	if err := svc.Delete(ctx, stream.ID, owner.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := testutil.CountVotes(t, conn, stream.ID); n != 0 {
		t.Fatalf("expected votes removed, got %d", n)
	}
	_, err = repository.NewCurrentStreamRepository(conn).ByUserID(ctx, owner.ID)
	if !errors.Is(err, repository.ErrCurrentStreamNotFound) {
		t.Fatalf("expected pointer cleared, got %v", err)
	}
}

func TestUpvoteDownvote(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	creator := testutil.CreateTestUser(t, conn, "creator@example.com")
	voter := testutil.CreateTestUser(t, conn, "voter@example.com")
	stream := testutil.CreateTestStream(t, conn, creator.ID, "")
	testutil.AddTestVoters(t, conn, stream.ID, 2)
	svc := NewVoteService(conn, repository.NewVoteRepository(conn))
	ctx := context.Background()

	before, err := svc.Count(ctx, stream.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	if err := svc.Downvote(ctx, voter.ID, stream.ID); !errors.Is(err, ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound, got %v", err)
	}
	if err := svc.Upvote(ctx, voter.ID, stream.ID); err != nil {
		t.Fatalf("upvote: %v", err)
	}
	if err := svc.Upvote(ctx, voter.ID, stream.ID); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	if err := svc.Upvote(ctx, voter.ID, "missing"); !errors.Is(err, ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}

	mid, _ := svc.Count(ctx, stream.ID)
	if mid != before+1 {
		t.Fatalf("expected %d votes after upvote, got %d", before+1, mid)
	}

	if err := svc.Downvote(ctx, voter.ID, stream.ID); err != nil {
		t.Fatalf("downvote: %v", err)
	}
	after, _ := svc.Count(ctx, stream.ID)
	if after != before {
		t.Fatalf("expected count back to %d, got %d", before, after)
	}
}

func TestConcurrentUpvoteCountsOnce(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	creator := testutil.CreateTestUser(t, conn, "creator@example.com")
	voter := testutil.CreateTestUser(t, conn, "voter@example.com")
	stream := testutil.CreateTestStream(t, conn, creator.ID, "")
	svc := NewVoteService(conn, repository.NewVoteRepository(conn))

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Upvote(context.Background(), voter.ID, stream.ID)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrAlreadyVoted):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected upvote error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 1 || conflicts.Load() != 9 {
		t.Fatalf("expected 1 success and 9 conflicts, got %d and %d", succeeded.Load(), conflicts.Load())
	}
	if n := testutil.CountVotes(t, conn, stream.ID); n != 1 {
		t.Fatalf("expected exactly one vote row, got %d", n)
	}
}

func TestAuthenticateOAuth(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(conn), "test-secret", false, time.Hour)
	ctx := context.Background()

	first, err := svc.AuthenticateOAuth(ctx, " Alice@Example.com ", model.ProviderGoogle)
	if err != nil {
		t.Fatalf("first sign-in: %v", err)
	}
	if first.Email != "alice@example.com" || first.Provider != model.ProviderGoogle {
		t.Fatalf("unexpected user: %+v", first)
	}

	second, err := svc.AuthenticateOAuth(ctx, "alice@example.com", model.ProviderGitHub)
	if err != nil {
		t.Fatalf("second sign-in: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same user, got %s and %s", first.ID, second.ID)
	}

	if _, err := svc.AuthenticateOAuth(ctx, "not-an-email", model.ProviderGoogle); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestSessionTokens(t *testing.T) {
	svc := NewAuthService(nil, "test-secret", true, time.Hour)
	user := &model.User{ID: "user-1", Email: "alice@example.com"}

	token, err := svc.GenerateJWT(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	userID, err := svc.SessionUserID(token)
	if err != nil || userID != "user-1" {
		t.Fatalf("SessionUserID() = %q, %v", userID, err)
	}

	other := NewAuthService(nil, "other-secret", true, time.Hour)
	if _, err := other.SessionUserID(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for foreign signature, got %v", err)
	}

	expired := NewAuthService(nil, "test-secret", true, -time.Minute)
	stale, _ := expired.GenerateJWT(user)
	if _, err := svc.SessionUserID(stale); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for expired token, got %v", err)
	}

	rec := httptest.NewRecorder()
	svc.SetJWTCookie(rec, token, time.Now().Add(time.Hour))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AuthCookieName || !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Fatalf("unexpected cookie: %+v", cookies)
	}
}
