package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	job "github.com/maheshrc27/tweet-scheduler/internal/jobs"
)

func (q *Queue) HandleDeliverPostTask(ctx context.Context, task *asynq.Task) error {
	var payload DeliverPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	err := q.job.DeliverPost(ctx, payload.PostID)
	if errors.Is(err, job.ErrCredentialMissing) {
		// the periodic run picks the post up once an account is connected
		slog.Warn("no credential for queued delivery", "post_id", payload.PostID)
		return nil
	}
	return err
}

func (q *Queue) ServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeDeliverPost, q.HandleDeliverPostTask)
	return mux
}
