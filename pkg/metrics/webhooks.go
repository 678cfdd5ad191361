package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics counts inbound provider events by source and outcome.
type WebhookMetrics struct {
	accepted  *prometheus.CounterVec
	duplicate *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_accepted",
		Help: "Webhook events processed successfully.",
	}, []string{"source"})
	duplicate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_duplicate",
		Help: "Webhook events skipped as already processed.",
	}, []string{"source"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_rejected",
		Help: "Webhook events rejected before processing.",
	}, []string{"source", "reason"})
	reg.MustRegister(accepted, duplicate, rejected)
	return &WebhookMetrics{
		accepted:  accepted,
		duplicate: duplicate,
		rejected:  rejected,
	}
}

// IncAccepted increments the accepted counter for the named source.
func (m *WebhookMetrics) IncAccepted(source string) {
	if m == nil || m.accepted == nil {
		return
	}
	m.accepted.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncDuplicate increments the duplicate counter for the named source.
func (m *WebhookMetrics) IncDuplicate(source string) {
	if m == nil || m.duplicate == nil {
		return
	}
	m.duplicate.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncRejected increments the rejected counter for the named source and reason.
func (m *WebhookMetrics) IncRejected(source, reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(source), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
