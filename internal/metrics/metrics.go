package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	approvalLinksDesc = prometheus.NewDesc(
		"contentflow_approval_links",
		"Approval links by status; pending links past expiry are reported as expired",
		[]string{"status"},
		nil,
	)

	resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentflow_approval_resolutions_total",
		Help: "Approval link resolution attempts by outcome",
	}, []string{"outcome"})

	linksIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contentflow_approval_links_issued_total",
		Help: "Approval links issued",
	})

	notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentflow_notifications_total",
		Help: "Notification deliveries by sink and result",
	}, []string{"sink", "result"})

	publishes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentflow_publish_runs_total",
		Help: "Scheduled content publish attempts by result",
	}, []string{"result"})
)

// LinkCounter reports approval link counts per status.
type LinkCounter interface {
	CountApprovalLinksByStatus(ctx context.Context, now time.Time) (map[string]int64, error)
}

// LinkCollector is a custom Prometheus collector that reads approval link
// counts from the store on each scrape.
type LinkCollector struct {
	store LinkCounter
}

// NewLinkCollector returns a collector backed by store.
func NewLinkCollector(store LinkCounter) *LinkCollector {
	return &LinkCollector{store: store}
}

// Describe sends the metric descriptor to the channel.
func (c *LinkCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- approvalLinksDesc
}

// Collect queries the store for link counts and emits them as gauges.
func (c *LinkCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.store.CountApprovalLinksByStatus(ctx, time.Now())
	if err != nil {
		slog.Error("failed to collect approval link metrics", "error", err)
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(
			approvalLinksDesc,
			prometheus.GaugeValue,
			float64(n),
			status,
		)
	}
}

var initOnce sync.Once

// Init registers the collectors with the default registry.
// Must be called once at startup.
func Init(store LinkCounter) {
	initOnce.Do(func() {
		prometheus.MustRegister(
			NewLinkCollector(store),
			resolutions,
			linksIssued,
			notifications,
			publishes,
		)
	})
}

// RecordResolution counts one resolution attempt.
func RecordResolution(outcome string) {
	resolutions.WithLabelValues(outcome).Inc()
}

// RecordLinkIssued counts one issued approval link.
func RecordLinkIssued() {
	linksIssued.Inc()
}

// RecordNotification counts one notification delivery attempt.
func RecordNotification(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	notifications.WithLabelValues(sink, result).Inc()
}

// RecordPublish counts one publish attempt by the scheduler.
func RecordPublish(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	publishes.WithLabelValues(result).Inc()
}
