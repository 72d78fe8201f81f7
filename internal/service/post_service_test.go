package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/maheshrc27/tweet-scheduler/internal/models"
	"github.com/maheshrc27/tweet-scheduler/internal/repository"
	"github.com/maheshrc27/tweet-scheduler/internal/testutil"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postFixture struct {
	svc     *postService
	repo    repository.PostRepository
	storage MediaStorage
}

func newPostFixture(t *testing.T) *postFixture {
	db := testutil.NewSQLiteDB(t)
	repo := repository.NewPostRepository(db)
	storage := NewLocalStorage(t.TempDir())
	svc := NewPostService(db, repo, storage, time.UTC).(*postService)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC) }
	return &postFixture{svc: svc, repo: repo, storage: storage}
}

func TestCreatePostWithMedia(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	files := testutil.FileHeaders(t,
		testutil.File{Field: "files", Name: "a.png", Data: testutil.PNG},
		testutil.File{Field: "files", Name: "b.jpg", Data: testutil.JPEG},
	)
	post, err := f.svc.Create(ctx, &transfer.PostCreation{
		Text:          "  Hello world  ",
		ScheduledTime: "2025-03-11T09:30:00Z",
		CommunityID:   "123",
	}, files)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", post.Text)
	assert.Equal(t, "123", post.CommunityID)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.True(t, time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC).Equal(post.ScheduledTime))
	require.Len(t, post.MediaRefs, 2)
	assert.True(t, strings.HasSuffix(post.MediaRefs[0], ".png"))
	assert.True(t, strings.HasSuffix(post.MediaRefs[1], ".jpg"))

	data, err := f.storage.Read(ctx, post.MediaRefs[0])
	require.NoError(t, err)
	assert.Equal(t, testutil.PNG, data)
}

func TestCreatePostValidation(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		pc   *transfer.PostCreation
	}{
		{"nil", nil},
		{"empty text", &transfer.PostCreation{Text: "   ", ScheduledTime: "2025-03-11T09:30"}},
		{"too long", &transfer.PostCreation{Text: strings.Repeat("x", 281), ScheduledTime: "2025-03-11T09:30"}},
		{"missing time", &transfer.PostCreation{Text: "hi"}},
		{"bad time", &transfer.PostCreation{Text: "hi", ScheduledTime: "tomorrow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.pc, nil)
			assert.ErrorIs(t, err, ErrInvalidPost)
		})
	}

	_, err := f.svc.Create(ctx, &transfer.PostCreation{Text: strings.Repeat("é", 280), ScheduledTime: "2025-03-11T09:30"}, nil)
	assert.NoError(t, err, "280 characters are allowed regardless of byte length")
}

func TestCreatePostRejectsUnsupportedMedia(t *testing.T) {
	f := newPostFixture(t)

	files := testutil.FileHeaders(t,
		testutil.File{Field: "files", Name: "a.png", Data: testutil.PNG},
		testutil.File{Field: "files", Name: "notes.txt", Data: []byte("plain text")},
	)
	_, err := f.svc.Create(context.Background(), &transfer.PostCreation{Text: "hi", ScheduledTime: "2025-03-11T09:30"}, files)
	assert.ErrorIs(t, err, ErrInvalidPost)

	posts, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestParseScheduledTimeUsesLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got, err := parseScheduledTime("2025-07-01T09:00", berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 7, 0, 0, 0, time.UTC), got)

	got, err = parseScheduledTime("2025-07-01T09:00:00+02:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 7, 0, 0, 0, time.UTC), got)
}

func TestUpdatePostResetsFailedPost(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	files := testutil.FileHeaders(t,
		testutil.File{Field: "files", Name: "a.png", Data: testutil.PNG},
		testutil.File{Field: "files", Name: "b.jpg", Data: testutil.JPEG},
	)
	post, err := f.svc.Create(ctx, &transfer.PostCreation{Text: "first", ScheduledTime: "2025-03-11T09:30"}, files)
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdateStatus(ctx, post.ID, models.PostStatusFailed, "", "Invalid token"))

	dropped := post.MediaRefs[1]
	updated, err := f.svc.Update(ctx, post.ID, &transfer.PostUpdate{
		Text:      "second",
		KeepMedia: []string{post.MediaRefs[0]},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "second", updated.Text)
	assert.Equal(t, models.PostStatusScheduled, updated.Status)
	assert.Empty(t, updated.ErrorMessage)
	assert.Equal(t, []string{post.MediaRefs[0]}, updated.MediaRefs)
	assert.True(t, post.ScheduledTime.Equal(updated.ScheduledTime), "time is kept when not sent")

	_, err = f.storage.Read(ctx, dropped)
	assert.Error(t, err, "dropped media is removed from storage")
}

func TestUpdatePostRejectsPostedPost(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.svc.Create(ctx, &transfer.PostCreation{Text: "x", ScheduledTime: "2025-03-11T09:30"}, nil)
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdateStatus(ctx, post.ID, models.PostStatusPosted, "55", ""))

	_, err = f.svc.Update(ctx, post.ID, &transfer.PostUpdate{Text: "y"}, nil)
	assert.ErrorIs(t, err, ErrPostConflict)

	_, err = f.svc.Update(ctx, post.ID+10, &transfer.PostUpdate{Text: "y"}, nil)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCancelAndRemovePost(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	files := testutil.FileHeaders(t, testutil.File{Field: "files", Name: "a.png", Data: testutil.PNG})
	post, err := f.svc.Create(ctx, &transfer.PostCreation{Text: "x", ScheduledTime: "2025-03-11T09:30"}, files)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, post.ID))
	assert.ErrorIs(t, f.svc.Cancel(ctx, post.ID), ErrPostConflict)

	got, err := f.svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusCancelled, got.Status)

	require.NoError(t, f.svc.Remove(ctx, post.ID))
	_, err = f.svc.Get(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = f.storage.Read(ctx, post.MediaRefs[0])
	assert.Error(t, err)
}

func TestRemoveAllKeepsClaimedPosts(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, &transfer.PostCreation{Text: "a", ScheduledTime: "2025-03-10T01:00"}, nil)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &transfer.PostCreation{Text: "b", ScheduledTime: "2025-03-11T01:00"}, nil)
	require.NoError(t, err)

	ok, err := f.repo.Claim(ctx, a.ID, time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, f.svc.Remove(ctx, a.ID), ErrPostConflict)

	n, err := f.svc.RemoveAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	posts, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, a.ID, posts[0].ID)
}

func TestBatchSchedule(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	tweets := []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	result, err := f.svc.BatchSchedule(ctx, &transfer.BatchSchedule{Tweets: tweets, CommunityID: "77"})
	require.NoError(t, err)
	assert.Equal(t, len(tweets), result.Scheduled)

	posts, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, len(tweets))
	for _, p := range posts {
		assert.Equal(t, "77", p.CommunityID)
		assert.Equal(t, models.PostStatusScheduled, p.Status)
	}

	_, err = f.svc.BatchSchedule(ctx, &transfer.BatchSchedule{})
	assert.ErrorIs(t, err, ErrInvalidPost)

	_, err = f.svc.BatchSchedule(ctx, &transfer.BatchSchedule{Tweets: []string{"ok", ""}})
	assert.ErrorIs(t, err, ErrInvalidPost)

	posts, err = f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, len(tweets), "a rejected batch inserts nothing")
}

func TestDistributeSchedule(t *testing.T) {
	start := time.Date(2025, 3, 10, 15, 45, 0, 0, time.UTC)

	t.Run("one per day at seven", func(t *testing.T) {
		times := DistributeSchedule(3, start, time.UTC)
		assert.Equal(t, []time.Time{
			time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 11, 7, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 12, 7, 0, 0, 0, time.UTC),
		}, times)
	})

	t.Run("remainder goes to earlier days", func(t *testing.T) {
		times := DistributeSchedule(9, start, time.UTC)
		require.Len(t, times, 9)
		// days 0 and 1 get two posts, spread from 07:00 to 23:00
		assert.Equal(t, time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC), times[0])
		assert.Equal(t, time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC), times[1])
		assert.Equal(t, time.Date(2025, 3, 11, 7, 0, 0, 0, time.UTC), times[2])
		assert.Equal(t, time.Date(2025, 3, 11, 23, 0, 0, 0, time.UTC), times[3])
		assert.Equal(t, time.Date(2025, 3, 16, 7, 0, 0, 0, time.UTC), times[8])
	})

	t.Run("even spacing within a day", func(t *testing.T) {
		times := DistributeSchedule(28, start, time.UTC)
		require.Len(t, times, 28)
		assert.Equal(t, time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC), times[0])
		assert.Equal(t, time.Date(2025, 3, 10, 12, 20, 0, 0, time.UTC), times[1])
		assert.Equal(t, time.Date(2025, 3, 10, 17, 40, 0, 0, time.UTC), times[2])
		assert.Equal(t, time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC), times[3])
	})

	t.Run("window follows the location", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*60*60)
		times := DistributeSchedule(1, start, tokyo)
		// 15:45 UTC is already 00:45 on the 11th in Tokyo
		assert.Equal(t, time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC), times[0])
	})

	t.Run("nothing to schedule", func(t *testing.T) {
		assert.Nil(t, DistributeSchedule(0, start, time.UTC))
	})
}
