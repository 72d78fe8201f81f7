package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/tweet-scheduler/internal/models"
	"github.com/maheshrc27/tweet-scheduler/internal/repository"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrInvalidPost  = errors.New("invalid post")
	ErrPostConflict = errors.New("post cannot be changed in its current status")
)

const (
	scheduleDays      = 7
	scheduleStartHour = 7
	scheduleEndHour   = 23
)

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {}, "mp4": {}, "mov": {},
}

type PostService interface {
	Create(ctx context.Context, pc *transfer.PostCreation, files []*multipart.FileHeader) (*models.ScheduledPost, error)
	Update(ctx context.Context, id int64, pu *transfer.PostUpdate, files []*multipart.FileHeader) (*models.ScheduledPost, error)
	Get(ctx context.Context, id int64) (*models.ScheduledPost, error)
	List(ctx context.Context) ([]*models.ScheduledPost, error)
	Cancel(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
	RemoveAll(ctx context.Context) (int64, error)
	BatchSchedule(ctx context.Context, bs *transfer.BatchSchedule) (*transfer.BatchScheduleResult, error)
}

type postService struct {
	db      *sql.DB
	pr      repository.PostRepository
	storage MediaStorage
	loc     *time.Location
	now     func() time.Time
}

func NewPostService(db *sql.DB, pr repository.PostRepository, storage MediaStorage, loc *time.Location) PostService {
	if loc == nil {
		loc = time.UTC
	}
	return &postService{
		db:      db,
		pr:      pr,
		storage: storage,
		loc:     loc,
		now:     time.Now,
	}
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text cannot be empty", ErrInvalidPost)
	}
	if n := utf8.RuneCountInString(text); n > models.MaxPostLength {
		return "", fmt.Errorf("%w: text is %d characters, the limit is %d", ErrInvalidPost, n, models.MaxPostLength)
	}
	return text, nil
}

var scheduledTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// parseScheduledTime accepts RFC 3339 timestamps and zone-less datetime-local
// values, which are read in loc.
func parseScheduledTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: scheduled_time is required", ErrInvalidPost)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range scheduledTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid scheduled_time %q", ErrInvalidPost, value)
}

func (s *postService) Create(ctx context.Context, pc *transfer.PostCreation, files []*multipart.FileHeader) (*models.ScheduledPost, error) {
	if pc == nil {
		return nil, fmt.Errorf("%w: post creation data is nil", ErrInvalidPost)
	}

	text, err := validateText(pc.Text)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	scheduledTime, err := parseScheduledTime(pc.ScheduledTime, s.loc)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	refs, err := s.processFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	post := &models.ScheduledPost{
		Text:          text,
		MediaRefs:     refs,
		CommunityID:   strings.TrimSpace(pc.CommunityID),
		ScheduledTime: scheduledTime,
		Status:        models.PostStatusScheduled,
	}

	id, err := s.pr.Create(ctx, nil, post)
	if err != nil {
		s.removeMedia(ctx, refs)
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return s.Get(ctx, id)
}

// processFiles validates and stores uploaded media, returning references in
// upload order. Already stored files are removed again on failure.
func (s *postService) processFiles(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	refs := []string{}
	for _, file := range files {
		data, err := readFileHeader(file)
		if err != nil {
			s.removeMedia(ctx, refs)
			return nil, fmt.Errorf("error reading file content: %w", err)
		}

		kind, err := filetype.Match(data)
		if err != nil || kind == types.Unknown {
			s.removeMedia(ctx, refs)
			return nil, fmt.Errorf("%w: unsupported file type for %s", ErrInvalidPost, file.Filename)
		}
		if _, ok := allowedMediaTypes[kind.Extension]; !ok {
			s.removeMedia(ctx, refs)
			return nil, fmt.Errorf("%w: file type %s is not allowed", ErrInvalidPost, kind.Extension)
		}

		ref, err := s.storage.Save(ctx, data, kind.Extension, kind.MIME.Value)
		if err != nil {
			s.removeMedia(ctx, refs)
			return nil, fmt.Errorf("error uploading file: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func readFileHeader(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *postService) removeMedia(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.storage.Remove(ctx, ref); err != nil {
			slog.Warn("failed to delete media file", "ref", ref, "error", err)
		}
	}
}

func (s *postService) Update(ctx context.Context, id int64, pu *transfer.PostUpdate, files []*multipart.FileHeader) (*models.ScheduledPost, error) {
	if pu == nil {
		return nil, fmt.Errorf("%w: post update data is nil", ErrInvalidPost)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsEditable() {
		return nil, fmt.Errorf("%w: post is %s", ErrPostConflict, existing.Status)
	}

	text, err := validateText(pu.Text)
	if err != nil {
		return nil, err
	}
	scheduledTime := existing.ScheduledTime
	if strings.TrimSpace(pu.ScheduledTime) != "" {
		if scheduledTime, err = parseScheduledTime(pu.ScheduledTime, s.loc); err != nil {
			return nil, err
		}
	}

	kept := existing.MediaRefs
	if pu.KeepMedia != nil {
		kept = intersect(pu.KeepMedia, existing.MediaRefs)
	}
	added, err := s.processFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	updated := &models.ScheduledPost{
		ID:            id,
		Text:          text,
		MediaRefs:     append(append([]string{}, kept...), added...),
		CommunityID:   strings.TrimSpace(pu.CommunityID),
		ScheduledTime: scheduledTime,
	}
	if err := s.pr.UpdateContent(ctx, updated); err != nil {
		s.removeMedia(ctx, added)
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: post changed status during the update", ErrPostConflict)
		}
		return nil, fmt.Errorf("error updating post: %w", err)
	}

	s.removeMedia(ctx, difference(existing.MediaRefs, kept))
	return s.Get(ctx, id)
}

// intersect keeps the entries of want that also appear in have, in the order
// of have.
func intersect(want, have []string) []string {
	set := make(map[string]struct{}, len(want))
	for _, w := range want {
		set[w] = struct{}{}
	}
	out := []string{}
	for _, h := range have {
		if _, ok := set[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

func difference(all, keep []string) []string {
	set := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		set[k] = struct{}{}
	}
	var out []string
	for _, a := range all {
		if _, ok := set[a]; !ok {
			out = append(out, a)
		}
	}
	return out
}

func (s *postService) Get(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: post id is not valid", ErrInvalidPost)
	}
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) List(ctx context.Context) ([]*models.ScheduledPost, error) {
	posts, err := s.pr.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Cancel(ctx context.Context, id int64) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.pr.Cancel(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return fmt.Errorf("%w: post is %s", ErrPostConflict, post.Status)
		}
		return fmt.Errorf("error cancelling post: %w", err)
	}
	return nil
}

func (s *postService) Remove(ctx context.Context, id int64) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.pr.Remove(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return fmt.Errorf("%w: post is being delivered", ErrPostConflict)
		}
		return fmt.Errorf("error removing post: %w", err)
	}
	s.removeMedia(ctx, post.MediaRefs)
	return nil
}

func (s *postService) RemoveAll(ctx context.Context) (int64, error) {
	posts, err := s.pr.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing posts: %w", err)
	}

	n, err := s.pr.RemoveAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("error removing posts: %w", err)
	}

	for _, post := range posts {
		if post.Status != models.PostStatusInProgress {
			s.removeMedia(ctx, post.MediaRefs)
		}
	}
	return n, nil
}

func (s *postService) BatchSchedule(ctx context.Context, bs *transfer.BatchSchedule) (*transfer.BatchScheduleResult, error) {
	if bs == nil || len(bs.Tweets) == 0 {
		return nil, fmt.Errorf("%w: no tweets provided", ErrInvalidPost)
	}

	texts := make([]string, 0, len(bs.Tweets))
	for i, tweet := range bs.Tweets {
		text, err := validateText(tweet)
		if err != nil {
			return nil, fmt.Errorf("tweet %d: %w", i+1, err)
		}
		texts = append(texts, text)
	}

	start := s.now()
	if bs.StartDate != "" {
		day, err := time.ParseInLocation("2006-01-02", bs.StartDate, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start_date %q", ErrInvalidPost, bs.StartDate)
		}
		start = day
	}

	times := DistributeSchedule(len(texts), start, s.loc)
	posts := make([]*models.ScheduledPost, len(texts))
	for i, text := range texts {
		posts[i] = &models.ScheduledPost{
			Text:          text,
			MediaRefs:     []string{},
			CommunityID:   strings.TrimSpace(bs.CommunityID),
			ScheduledTime: times[i],
			Status:        models.PostStatusScheduled,
		}
	}

	var ids []int64
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		ids, err = s.pr.CreateBatch(ctx, tx, posts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error scheduling posts: %w", err)
	}

	result := &transfer.BatchScheduleResult{Scheduled: len(ids), Posts: make([]transfer.BatchScheduledPost, len(ids))}
	for i, id := range ids {
		result.Posts[i] = transfer.BatchScheduledPost{ID: id, ScheduledTime: times[i]}
	}
	return result, nil
}

// DistributeSchedule spreads count posts over seven days starting on the day
// of start. Earlier days take the remainder. Within a day the posts are
// evenly spaced from 07:00 to 23:00 in loc; a lone post goes out at 07:00.
// Times are returned in UTC, in posting order.
func DistributeSchedule(count int, start time.Time, loc *time.Location) []time.Time {
	if count <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	perDay := make([]int, scheduleDays)
	for day := range perDay {
		perDay[day] = count / scheduleDays
		if day < count%scheduleDays {
			perDay[day]++
		}
	}

	local := start.In(loc)
	window := (scheduleEndHour - scheduleStartHour) * 60
	times := make([]time.Time, 0, count)
	for day, n := range perDay {
		for i := 0; i < n; i++ {
			offset := 0
			if n > 1 {
				offset = i * window / (n - 1)
			}
			t := time.Date(local.Year(), local.Month(), local.Day()+day,
				scheduleStartHour+offset/60, offset%60, 0, 0, loc)
			times = append(times, t.UTC())
		}
	}
	return times
}
