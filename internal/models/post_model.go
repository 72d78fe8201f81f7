package models

import "time"

const MaxPostLength = 280

type ScheduledPost struct {
	ID             int64     `db:"id" json:"id"`
	Text           string    `db:"text" json:"text"`
	MediaRefs      []string  `db:"media_refs" json:"media_refs"`
	CommunityID    string    `db:"community_id" json:"community_id,omitempty"`
	ScheduledTime  time.Time `db:"scheduled_time" json:"scheduled_time"`
	Status         string    `db:"status" json:"status"` // scheduled, in_progress, posted, failed, cancelled
	ExternalPostID string    `db:"external_post_id" json:"twitter_post_id,omitempty"`
	ErrorMessage   string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusScheduled  = "scheduled"
	PostStatusInProgress = "in_progress"
	PostStatusPosted     = "posted"
	PostStatusFailed     = "failed"
	PostStatusCancelled  = "cancelled"
)

// IsDue reports whether the post is waiting and its time has come.
func (p *ScheduledPost) IsDue(now time.Time) bool {
	return p.Status == PostStatusScheduled && !p.ScheduledTime.After(now)
}

// IsEditable reports whether the operator may still change the post.
func (p *ScheduledPost) IsEditable() bool {
	return p.Status == PostStatusScheduled || p.Status == PostStatusFailed
}
