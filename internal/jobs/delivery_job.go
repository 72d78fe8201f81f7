package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/tweet-scheduler/internal/errtrack"
	"github.com/maheshrc27/tweet-scheduler/internal/metrics"
	"github.com/maheshrc27/tweet-scheduler/internal/models"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
)

var (
	ErrCredentialMissing = errors.New("no usable credential stored")
	ErrMediaRead         = errors.New("media read failed")
)

const unexpectedResponseMessage = "unexpected response from twitter: no post id and no errors"

type PostStore interface {
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	QueryDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	Claim(ctx context.Context, id int64, now time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status, externalPostID, errorMessage string) error
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type CredentialSource interface {
	GetPrimaryCredential(ctx context.Context) (*models.Credential, error)
}

type SocialClient interface {
	UploadMedia(ctx context.Context, cred *models.Credential, media []byte) (string, error)
	PostText(ctx context.Context, cred *models.Credential, text string, mediaIDs []string, communityID string) (*transfer.TweetResponse, error)
	VerifyCredentials(ctx context.Context, cred *models.Credential) (*transfer.TwitterUser, error)
}

type MediaReader interface {
	Read(ctx context.Context, ref string) ([]byte, error)
}

type Options struct {
	// VerifyCredentials checks the stored token pair once per invocation
	// before any post is touched.
	VerifyCredentials bool
	// ClaimTimeout is how long a post may stay in_progress before it is
	// handed back to the queue. Zero disables requeueing.
	ClaimTimeout time.Duration
}

type DeliveryJob struct {
	posts  PostStore
	creds  CredentialSource
	client SocialClient
	media  MediaReader
	opts   Options
	now    func() time.Time
}

func NewDeliveryJob(posts PostStore, creds CredentialSource, client SocialClient, media MediaReader, opts Options) *DeliveryJob {
	return &DeliveryJob{
		posts:  posts,
		creds:  creds,
		client: client,
		media:  media,
		opts:   opts,
		now:    time.Now,
	}
}

// Run delivers every post that is due. A failing post never stops the
// batch; only store and credential errors end the invocation early.
func (j *DeliveryJob) Run(ctx context.Context) error {
	started := j.now()
	defer metrics.RecordRun(started)

	logger := slog.With("run_id", uuid.NewString())
	logger.Info("delivery run started")

	cred, err := j.credential(ctx, logger)
	if err != nil {
		return err
	}

	if j.opts.ClaimTimeout > 0 {
		requeued, err := j.posts.RequeueStale(ctx, started.Add(-j.opts.ClaimTimeout))
		if err != nil {
			logger.Error("failed to requeue stale claims", "error", err)
			return fmt.Errorf("requeue stale claims: %w", err)
		}
		if requeued > 0 {
			logger.Warn("requeued stale claims", "count", requeued)
			metrics.RecordRequeued(requeued)
		}
	}

	due, err := j.posts.QueryDue(ctx, started)
	if err != nil {
		logger.Error("failed to query due posts", "error", err)
		return fmt.Errorf("query due posts: %w", err)
	}
	if len(due) == 0 {
		logger.Info("no posts due")
		return nil
	}
	logger.Info("found posts to deliver", "count", len(due))

	for _, post := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.claimAndDeliver(ctx, logger, cred, post); err != nil {
			return err
		}
	}

	logger.Info("delivery run finished", "duration", time.Since(started).String())
	return nil
}

// DeliverPost delivers a single post if it is still due. Posts that were
// edited, cancelled or already picked up are left alone.
func (j *DeliveryJob) DeliverPost(ctx context.Context, id int64) error {
	logger := slog.With("run_id", uuid.NewString(), "post_id", id)

	post, err := j.posts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load post %d: %w", id, err)
	}
	if post == nil || !post.IsDue(j.now()) {
		logger.Info("post is not due, skipping")
		return nil
	}

	cred, err := j.credential(ctx, logger)
	if err != nil {
		return err
	}
	return j.claimAndDeliver(ctx, logger, cred, post)
}

func (j *DeliveryJob) credential(ctx context.Context, logger *slog.Logger) (*models.Credential, error) {
	cred, err := j.creds.GetPrimaryCredential(ctx)
	if err != nil {
		logger.Error("failed to load credential", "error", err)
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if !cred.IsComplete() {
		logger.Warn("no twitter account connected, nothing will be delivered")
		return nil, ErrCredentialMissing
	}

	if j.opts.VerifyCredentials {
		user, err := j.client.VerifyCredentials(ctx, cred)
		if err != nil {
			logger.Error("stored credential failed verification", "error", err)
			return nil, fmt.Errorf("verify credential: %w", err)
		}
		logger.Info("credential verified", "screen_name", user.ScreenName)
	}
	return cred, nil
}

func (j *DeliveryJob) claimAndDeliver(ctx context.Context, logger *slog.Logger, cred *models.Credential, post *models.ScheduledPost) error {
	logger = logger.With("post_id", post.ID)

	claimed, err := j.posts.Claim(ctx, post.ID, j.now())
	if err != nil {
		logger.Error("failed to claim post", "error", err)
		return fmt.Errorf("claim post %d: %w", post.ID, err)
	}
	if !claimed {
		logger.Info("post already claimed elsewhere")
		return nil
	}

	status, externalID, message := j.deliver(ctx, logger, cred, post)

	if err := j.posts.UpdateStatus(ctx, post.ID, status, externalID, message); err != nil {
		logger.Error("failed to record delivery outcome", "status", status, "error", err)
		return fmt.Errorf("update post %d: %w", post.ID, err)
	}
	metrics.RecordPost(status)

	if status == models.PostStatusPosted {
		logger.Info("post delivered", "twitter_post_id", externalID)
	} else {
		logger.Warn("post delivery failed", "error_message", message)
	}
	return nil
}

// deliver performs the remote calls for one claimed post and returns the
// outcome to record. A panic becomes a failed outcome.
func (j *DeliveryJob) deliver(ctx context.Context, logger *slog.Logger, cred *models.Credential, post *models.ScheduledPost) (status, externalID, message string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while delivering post", "panic", r)
			errtrack.CapturePanic(r, map[string]string{"post_id": strconv.FormatInt(post.ID, 10)})
			status, externalID, message = models.PostStatusFailed, "", fmt.Sprint(r)
		}
	}()

	mediaIDs := j.uploadMedia(ctx, logger, cred, post.MediaRefs)

	resp, err := j.client.PostText(ctx, cred, post.Text, mediaIDs, post.CommunityID)
	if err != nil {
		errtrack.CaptureError(err, map[string]string{"post_id": strconv.FormatInt(post.ID, 10), "stage": "post_text"})
		return models.PostStatusFailed, "", err.Error()
	}

	switch {
	case resp.Succeeded():
		return models.PostStatusPosted, resp.Data.ID, ""
	case resp.ErrorMessage() != "":
		return models.PostStatusFailed, "", resp.ErrorMessage()
	default:
		return models.PostStatusFailed, "", unexpectedResponseMessage
	}
}

// uploadMedia returns the handles of every attachment that could be read
// and uploaded. Failed attachments are logged and left out.
func (j *DeliveryJob) uploadMedia(ctx context.Context, logger *slog.Logger, cred *models.Credential, refs []string) []string {
	var mediaIDs []string
	for _, ref := range refs {
		data, err := j.media.Read(ctx, ref)
		if err != nil {
			logger.Warn("skipping attachment", "stage", "media_read", "ref", ref, "error", fmt.Errorf("%w: %v", ErrMediaRead, err))
			metrics.RecordMediaReadFailure()
			continue
		}

		mediaID, err := j.client.UploadMedia(ctx, cred, data)
		if err != nil {
			logger.Warn("skipping attachment", "stage", "media_upload", "ref", ref, "error", err)
			metrics.RecordUpload(false)
			continue
		}
		metrics.RecordUpload(true)
		mediaIDs = append(mediaIDs, mediaID)
	}
	return mediaIDs
}
