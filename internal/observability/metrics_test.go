package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsDeliveryCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncDeliverySent("re-engagement")
	metrics.IncDeliveryFailed("re-engagement", "transport_error")
	metrics.IncDeliverySkipped("re-engagement")
	metrics.ObserveSendDuration("re-engagement", 120*time.Millisecond)
	metrics.IncDispatchInFlight("re-engagement")
	metrics.DecDispatchInFlight("re-engagement")
	metrics.IncBatch("re-engagement")

	if got := testutil.ToFloat64(metrics.deliveriesSentTotal.WithLabelValues("re-engagement")); got != 1 {
		t.Fatalf("deliveries_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.deliveriesFailedTotal.WithLabelValues("re-engagement", "transport_error")); got != 1 {
		t.Fatalf("deliveries_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.deliveriesSkipped.WithLabelValues("re-engagement")); got != 1 {
		t.Fatalf("deliveries_skipped_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.batchesTotal.WithLabelValues("re-engagement")); got != 1 {
		t.Fatalf("batches_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.dispatchInflight.WithLabelValues("re-engagement")); got != 0 {
		t.Fatalf("dispatch_inflight = %v, want 0", got)
	}
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	metrics.IncDeliverySent("re-engagement")

	server := httptest.NewServer(metrics.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncDeliverySent("x")
	metrics.IncDeliveryFailed("x", "y")
	metrics.IncDeliverySkipped("x")
	metrics.ObserveSendDuration("x", time.Second)
	metrics.IncDispatchInFlight("x")
	metrics.DecDispatchInFlight("x")
	metrics.IncBatch("x")
}
