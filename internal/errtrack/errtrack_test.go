package errtrack

import (
	"errors"
	"testing"
	"time"

	config "github.com/maheshrc27/tweet-scheduler/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledWithoutDSN(t *testing.T) {
	require.NoError(t, Init(config.Sentry{}))
	assert.False(t, IsEnabled())

	CaptureError(errors.New("boom"), map[string]string{"post_id": "1"})
	CapturePanic("boom", nil)
	assert.True(t, Flush(time.Millisecond))
}

func TestInitRejectsMalformedDSN(t *testing.T) {
	err := Init(config.Sentry{DSN: "not a dsn"})
	assert.Error(t, err)
	assert.False(t, IsEnabled())
}
