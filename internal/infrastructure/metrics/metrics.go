package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IPNMetrics counts gateway callbacks by outcome.
type IPNMetrics struct {
	NotificationsReceivedTotal  prometheus.Counter
	NotificationsAcceptedTotal  *prometheus.CounterVec
	NotificationsRejectedTotal  *prometheus.CounterVec
	NotificationsDuplicateTotal prometheus.Counter
	PublishErrorsTotal          prometheus.Counter
	ProcessingDuration          *prometheus.HistogramVec
}

// NewIPNMetrics registers the collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewIPNMetrics(reg prometheus.Registerer) *IPNMetrics {
	factory := promauto.With(reg)
	return &IPNMetrics{
		NotificationsReceivedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ipn_notifications_received_total",
				Help: "Total number of payment notifications received",
			},
		),

		NotificationsAcceptedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipn_notifications_accepted_total",
				Help: "Accepted payment notifications by status and card brand",
			},
			[]string{"status", "card_brand", "test"},
		),

		NotificationsRejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipn_notifications_rejected_total",
				Help: "Rejected payment notifications by error kind",
			},
			[]string{"kind"},
		),

		NotificationsDuplicateTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ipn_notifications_duplicate_total",
				Help: "Notifications already stored and acknowledged again",
			},
		),

		PublishErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ipn_publish_errors_total",
				Help: "Failures publishing notification events",
			},
		),

		ProcessingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ipn_processing_duration_seconds",
				Help:    "Time spent handling a notification",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms, 2ms, 4ms...
			},
			[]string{"outcome"},
		),
	}
}

func (m *IPNMetrics) RecordReceived() {
	m.NotificationsReceivedTotal.Inc()
}

func (m *IPNMetrics) RecordAccepted(status, cardBrand string, test bool) {
	testStr := "false"
	if test {
		testStr = "true"
	}
	m.NotificationsAcceptedTotal.WithLabelValues(status, cardBrand, testStr).Inc()
}

func (m *IPNMetrics) RecordRejected(kind string) {
	m.NotificationsRejectedTotal.WithLabelValues(kind).Inc()
}

func (m *IPNMetrics) RecordDuplicate() {
	m.NotificationsDuplicateTotal.Inc()
}

func (m *IPNMetrics) RecordPublishError() {
	m.PublishErrorsTotal.Inc()
}

func (m *IPNMetrics) RecordProcessingDuration(outcome string, durationSeconds float64) {
	m.ProcessingDuration.WithLabelValues(outcome).Observe(durationSeconds)
}
