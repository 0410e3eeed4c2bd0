package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	httpRequestsTotal     atomic.Int64
	httpErrorsTotal       atomic.Int64
	analysisRunsTotal     atomic.Int64
	insightsCreatedTotal  atomic.Int64
	eventsConsumedTotal   atomic.Int64
	eventsSkippedTotal    atomic.Int64
	notificationsTotal    atomic.Int64
	recordsReprocessTotal atomic.Int64
)

func IncHTTPRequest() {
	httpRequestsTotal.Add(1)
}

func IncHTTPError() {
	httpErrorsTotal.Add(1)
}

func IncAnalysisRun() {
	analysisRunsTotal.Add(1)
}

func AddInsightsCreated(n int) {
	insightsCreatedTotal.Add(int64(n))
}

func IncEventConsumed() {
	eventsConsumedTotal.Add(1)
}

func IncEventSkipped() {
	eventsSkippedTotal.Add(1)
}

func IncNotificationCreated() {
	notificationsTotal.Add(1)
}

func AddRecordsReprocessed(n int) {
	recordsReprocessTotal.Add(int64(n))
}

type counter struct {
	name string
	help string
	val  *atomic.Int64
}

var counters = []counter{
	{"reform_http_requests_total", "HTTP requests served by this process.", &httpRequestsTotal},
	{"reform_http_errors_total", "HTTP requests answered with a 5xx status.", &httpErrorsTotal},
	{"reform_analytics_runs_total", "Analytics pipeline runs triggered by events or API calls.", &analysisRunsTotal},
	{"reform_insights_created_total", "Insight rows appended by the analytics engine.", &insightsCreatedTotal},
	{"reform_events_consumed_total", "Bus events handled by this process.", &eventsConsumedTotal},
	{"reform_events_skipped_total", "Bus events received but not surfaced.", &eventsSkippedTotal},
	{"reform_notifications_created_total", "Notification rows created from bus events.", &notificationsTotal},
	{"reform_records_reprocessed_total", "Stuck records swept back through extraction.", &recordsReprocessTotal},
}

// WritePrometheus renders every counter in the text exposition format.
func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	for _, c := range counters {
		fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", c.name)
		fmt.Fprintf(w, "%s %d\n", c.name, c.val.Load())
	}
}

// Handler serves the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WritePrometheus(w)
	}
}
