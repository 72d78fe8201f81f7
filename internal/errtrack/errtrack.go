// Package errtrack reports unexpected failures to Sentry when a DSN is set.
package errtrack

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	config "github.com/maheshrc27/tweet-scheduler/configs"
)

var enabled bool

func Init(cfg config.Sentry) error {
	if cfg.DSN == "" {
		slog.Info("error tracking is disabled")
		enabled = false
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Tags == nil {
				event.Tags = make(map[string]string)
			}
			event.Tags["service"] = "tweet-scheduler"
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}

	enabled = true
	return nil
}

func IsEnabled() bool {
	return enabled
}

// CaptureError sends err with tags attached. It is a no-op when disabled.
func CaptureError(err error, tags map[string]string) {
	if !enabled || err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			scope.SetTag(key, value)
		}
		scope.SetLevel(sentry.LevelError)
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func CapturePanic(recovered any, tags map[string]string) {
	if !enabled {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			scope.SetTag(key, value)
		}
		scope.SetLevel(sentry.LevelFatal)
		sentry.CaptureException(fmt.Errorf("panic recovered: %v", recovered))
	})
}

func Flush(timeout time.Duration) bool {
	if !enabled {
		return true
	}
	return sentry.Flush(timeout)
}
