package transfer

import "time"

type PostCreation struct {
	Text          string
	ScheduledTime string
	CommunityID   string
}

type PostUpdate struct {
	Text          string
	ScheduledTime string
	CommunityID   string
	// KeepMedia lists existing references to retain when new files are sent.
	KeepMedia []string
}

type BatchSchedule struct {
	Tweets      []string `json:"tweets"`
	CommunityID string   `json:"community_id"`
	StartDate   string   `json:"start_date"`
}

type BatchScheduleResult struct {
	Scheduled int                  `json:"scheduled"`
	Posts     []BatchScheduledPost `json:"posts"`
}

type BatchScheduledPost struct {
	ID            int64     `json:"id"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

type GeneratedTweets struct {
	Tweets []string `json:"tweets"`
}

type CommunityTagInput struct {
	TagName       string `json:"tag_name"`
	CommunityID   string `json:"community_id"`
	CommunityName string `json:"community_name"`
}

type LoginRequest struct {
	Password string `json:"password"`
}
