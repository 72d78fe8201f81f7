package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueDelivery schedules a deliver:post task to run after delay. A
// negative delay runs it right away.
func EnqueueDelivery(ctx context.Context, client Enqueuer, payload DeliverPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if delay < 0 {
		delay = 0
	}
	task := asynq.NewTask(TaskTypeDeliverPost, taskPayload, asynq.MaxRetry(3))

	info, err := client.EnqueueContext(ctx, task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	slog.Info("delivery task queued", "post_id", payload.PostID, "task_id", info.ID, "delay", delay.String())
	return nil
}
