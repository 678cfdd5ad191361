package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestWebhookMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWebhookMetrics(reg)
	metrics.IncAccepted("payments")
	metrics.IncDuplicate("payments")
	metrics.IncRejected("scheduling", "stale_timestamp")
	metrics.IncRejected("scheduling", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "webhook_events_accepted", map[string]string{"source": "payments"}); err != nil {
		t.Fatalf("fetch accepted: %v", err)
	} else if got != 1 {
		t.Fatalf("expected accepted=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "webhook_events_duplicate", map[string]string{"source": "payments"}); err != nil {
		t.Fatalf("fetch duplicate: %v", err)
	} else if got != 1 {
		t.Fatalf("expected duplicate=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "webhook_events_rejected", map[string]string{"source": "scheduling", "reason": "stale_timestamp"}); err != nil {
		t.Fatalf("fetch rejected: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejected=1, got %f", got)
	}

	// empty reason is normalized rather than dropped
	if got, err := fetchCounterValue(mfs, "webhook_events_rejected", map[string]string{"source": "scheduling", "reason": "unknown"}); err != nil {
		t.Fatalf("fetch normalized rejected: %v", err)
	} else if got != 1 {
		t.Fatalf("expected normalized rejected=1, got %f", got)
	}
}

func TestWebhookMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewWebhookMetrics(nil)
	metrics.IncAccepted("payments")
	metrics.IncDuplicate("payments")
	metrics.IncRejected("payments", "mismatch")
}
