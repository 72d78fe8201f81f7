package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	job "github.com/maheshrc27/tweet-scheduler/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	task *asynq.Task
	opts []asynq.Option
	err  error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.task = task
	f.opts = opts
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

type fakeDeliverer struct {
	ids []int64
	err error
}

func (f *fakeDeliverer) DeliverPost(ctx context.Context, postID int64) error {
	f.ids = append(f.ids, postID)
	return f.err
}

func TestEnqueueDelivery(t *testing.T) {
	enq := &fakeEnqueuer{}

	err := EnqueueDelivery(context.Background(), enq, DeliverPostPayload{PostID: 7}, 10*time.Minute)
	require.NoError(t, err)

	require.NotNil(t, enq.task)
	assert.Equal(t, TaskTypeDeliverPost, enq.task.Type())
	assert.JSONEq(t, `{"post_id":7}`, string(enq.task.Payload()))
	require.Len(t, enq.opts, 1)
	assert.Equal(t, asynq.ProcessInOpt, enq.opts[0].Type())
	assert.Equal(t, 10*time.Minute, enq.opts[0].Value())
}

func TestEnqueueDeliveryClampsPastDelay(t *testing.T) {
	enq := &fakeEnqueuer{}

	require.NoError(t, EnqueueDelivery(context.Background(), enq, DeliverPostPayload{PostID: 1}, -time.Hour))
	assert.Equal(t, time.Duration(0), enq.opts[0].Value())
}

func TestEnqueueDeliveryError(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	err := EnqueueDelivery(context.Background(), enq, DeliverPostPayload{PostID: 1}, 0)
	assert.ErrorContains(t, err, "redis down")
}

func TestHandleDeliverPostTask(t *testing.T) {
	d := &fakeDeliverer{}
	q := NewQueue(d)

	payload, err := json.Marshal(DeliverPostPayload{PostID: 42})
	require.NoError(t, err)

	require.NoError(t, q.HandleDeliverPostTask(context.Background(), asynq.NewTask(TaskTypeDeliverPost, payload)))
	assert.Equal(t, []int64{42}, d.ids)

	d.err = job.ErrCredentialMissing
	assert.NoError(t, q.HandleDeliverPostTask(context.Background(), asynq.NewTask(TaskTypeDeliverPost, payload)))

	d.err = errors.New("database is locked")
	assert.Error(t, q.HandleDeliverPostTask(context.Background(), asynq.NewTask(TaskTypeDeliverPost, payload)))

	err = q.HandleDeliverPostTask(context.Background(), asynq.NewTask(TaskTypeDeliverPost, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
