package queue

import "context"

// Deliverer delivers one post if it is still due.
type Deliverer interface {
	DeliverPost(ctx context.Context, postID int64) error
}

type Queue struct {
	job Deliverer
}

func NewQueue(job Deliverer) *Queue {
	return &Queue{job: job}
}

const TaskTypeDeliverPost = "deliver:post"

type DeliverPostPayload struct {
	PostID int64 `json:"post_id"`
}
