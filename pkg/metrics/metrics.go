// Copyright 2025 Certen Protocol
//
// Build metrics — teacher's go.mod declares github.com/prometheus/client_golang
// but no retrieved teacher file actually imports it; this package is
// where this core exercises it: bundle/record/proof counters and a
// guard-check latency histogram, exposed via promhttp.Handler() for an
// external scrape collaborator to mount (the scrape transport itself is
// out of scope, same as publishing transport per core spec section 1).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BundlesBuilt counts completed Build calls, labeled by outcome.
	BundlesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "proofbundle",
		Name:      "bundles_built_total",
		Help:      "Number of bundle builds attempted, by outcome.",
	}, []string{"outcome"})

	// RecordsProcessed counts records normalized and canonicalized
	// across all builds.
	RecordsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "proofbundle",
		Name:      "records_processed_total",
		Help:      "Number of input records normalized and canonicalized.",
	})

	// ProofSelfCheckFailures counts sampled proof re-verifications that
	// failed during materialization.
	ProofSelfCheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "proofbundle",
		Name:      "proof_self_check_failures_total",
		Help:      "Number of sampled proof re-verifications that failed.",
	})

	// GuardCheckDuration observes the append-only guard's remote fetch
	// latency.
	GuardCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "proofbundle",
		Name:      "guard_check_duration_seconds",
		Help:      "Latency of the append-only guard's remote manifest fetch.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Handler returns the HTTP handler an external scrape collaborator mounts
// to expose these metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
