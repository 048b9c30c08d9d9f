package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks cart/wishlist persistence and reconciliation outcomes.
type SyncMetrics struct {
	persistSuccess *prometheus.CounterVec
	persistFailure *prometheus.CounterVec
	merges         *prometheus.CounterVec
	intents        *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
// A nil registerer yields a no-op recorder, matching test usage.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	persistSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_persist_success_total",
		Help: "Successful remote store writes.",
	}, []string{"collection"})
	persistFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_persist_failure_total",
		Help: "Failed remote store writes (best-effort, not retried).",
	}, []string{"collection"})
	merges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_merge_total",
		Help: "Guest-to-user merges performed on sign-in.",
	}, []string{"collection"})
	intents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_pending_intent_total",
		Help: "Deferred mutation intents by kind and outcome.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(persistSuccess, persistFailure, merges, intents)
	return &SyncMetrics{
		persistSuccess: persistSuccess,
		persistFailure: persistFailure,
		merges:         merges,
		intents:        intents,
	}
}

// IncPersistSuccess counts a completed remote write for the collection.
func (m *SyncMetrics) IncPersistSuccess(collection string) {
	if m == nil || m.persistSuccess == nil {
		return
	}
	m.persistSuccess.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncPersistFailure counts a dropped remote write for the collection.
func (m *SyncMetrics) IncPersistFailure(collection string) {
	if m == nil || m.persistFailure == nil {
		return
	}
	m.persistFailure.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncMerge counts a completed sign-in merge for the collection.
func (m *SyncMetrics) IncMerge(collection string) {
	if m == nil || m.merges == nil {
		return
	}
	m.merges.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncIntent counts a pending-intent transition: outcome is one of
// "submitted", "replayed", "declined", "discarded".
func (m *SyncMetrics) IncIntent(kind, outcome string) {
	if m == nil || m.intents == nil {
		return
	}
	m.intents.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
