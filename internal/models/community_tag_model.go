package models

import "time"

type CommunityTag struct {
	ID            int64     `db:"id" json:"id"`
	TagName       string    `db:"tag_name" json:"tag_name"`
	CommunityID   string    `db:"community_id" json:"community_id"`
	CommunityName string    `db:"community_name" json:"community_name,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
