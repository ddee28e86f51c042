package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIPNMetrics(t *testing.T) {
	m := NewIPNMetrics(prometheus.NewRegistry())

	m.RecordReceived()
	m.RecordReceived()
	m.RecordAccepted("PAID", "VI", false)
	m.RecordRejected("seal_mismatch")
	m.RecordDuplicate()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsReceivedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsAcceptedTotal.WithLabelValues("PAID", "VI", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsRejectedTotal.WithLabelValues("seal_mismatch")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NotificationsRejectedTotal.WithLabelValues("invalid_brand")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsDuplicateTotal))
}
