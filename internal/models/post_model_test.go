package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduledPostIsDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		post   ScheduledPost
		expect bool
	}{
		{"past and scheduled", ScheduledPost{Status: PostStatusScheduled, ScheduledTime: now.Add(-time.Minute)}, true},
		{"exactly now", ScheduledPost{Status: PostStatusScheduled, ScheduledTime: now}, true},
		{"future", ScheduledPost{Status: PostStatusScheduled, ScheduledTime: now.Add(time.Second)}, false},
		{"already posted", ScheduledPost{Status: PostStatusPosted, ScheduledTime: now.Add(-time.Hour)}, false},
		{"cancelled", ScheduledPost{Status: PostStatusCancelled, ScheduledTime: now.Add(-time.Hour)}, false},
		{"claimed", ScheduledPost{Status: PostStatusInProgress, ScheduledTime: now.Add(-time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.post.IsDue(now))
		})
	}
}

func TestCredentialIsComplete(t *testing.T) {
	var missing *Credential
	assert.False(t, missing.IsComplete())
	assert.False(t, (&Credential{AccessToken: "token"}).IsComplete())
	assert.False(t, (&Credential{AccessTokenSecret: "secret"}).IsComplete())
	assert.True(t, (&Credential{AccessToken: "token", AccessTokenSecret: "secret"}).IsComplete())
}
