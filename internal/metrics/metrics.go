package metrics

import (
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

var (
	runsTotal       = metrics.NewCounter("scheduler_runs_total")
	runDuration     = metrics.NewHistogram("scheduler_run_duration_seconds")
	claimsRequeued  = metrics.NewCounter("scheduler_claims_requeued_total")
	uploadsOK       = metrics.NewCounter(`scheduler_media_uploads_total{result="ok"}`)
	uploadsFailed   = metrics.NewCounter(`scheduler_media_uploads_total{result="failed"}`)
	mediaReadFailed = metrics.NewCounter(`scheduler_media_uploads_total{result="read_failed"}`)
)

// RecordRun counts one delivery job invocation and its duration.
func RecordRun(started time.Time) {
	runsTotal.Inc()
	runDuration.UpdateDuration(started)
}

// RecordPost counts a post that reached a terminal delivery status.
func RecordPost(status string) {
	metrics.GetOrCreateCounter(`scheduler_posts_total{status="` + status + `"}`).Inc()
}

func RecordUpload(ok bool) {
	if ok {
		uploadsOK.Inc()
		return
	}
	uploadsFailed.Inc()
}

func RecordMediaReadFailure() {
	mediaReadFailed.Inc()
}

func RecordRequeued(n int64) {
	if n > 0 {
		claimsRequeued.Add(int(n))
	}
}

// WritePrometheus writes every registered metric in Prometheus text format.
func WritePrometheus(w io.Writer) {
	metrics.WritePrometheus(w, true)
}
