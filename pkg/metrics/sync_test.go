package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSyncMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.IncPersistSuccess("cart")
	m.IncPersistSuccess("cart")
	m.IncPersistFailure("wishlist")
	m.IncMerge("cart")
	m.IncIntent("cart-add", "replayed")

	if got := testutil.ToFloat64(m.persistSuccess.WithLabelValues("cart")); got != 2 {
		t.Fatalf("expected 2 cart persist successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.persistFailure.WithLabelValues("wishlist")); got != 1 {
		t.Fatalf("expected 1 wishlist persist failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.merges.WithLabelValues("cart")); got != 1 {
		t.Fatalf("expected 1 cart merge, got %v", got)
	}
	if got := testutil.ToFloat64(m.intents.WithLabelValues("cart-add", "replayed")); got != 1 {
		t.Fatalf("expected 1 replayed intent, got %v", got)
	}
}

func TestSyncMetricsNilSafe(t *testing.T) {
	var m *SyncMetrics
	m.IncPersistSuccess("cart")
	m.IncPersistFailure("cart")
	m.IncMerge("cart")
	m.IncIntent("cart-add", "declined")

	empty := NewSyncMetrics(nil)
	empty.IncPersistSuccess("cart")
}
