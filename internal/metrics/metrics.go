// Package metrics holds the Prometheus counters exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enrichment outcomes.
const (
	OutcomeServed  = "served"
	OutcomeFetched = "fetched"
	OutcomeFailed  = "failed"
)

var (
	Enrichments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salgsmotor_enrichments_total",
			Help: "Enrichment requests by outcome (served, fetched, failed)",
		},
		[]string{"outcome"},
	)

	ProbeResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salgsmotor_probe_results_total",
			Help: "Probe section results by probe and section state",
		},
		[]string{"probe", "state"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salgsmotor_cache_errors_total",
			Help: "Cache tier errors treated as a miss or a dropped write",
		},
		[]string{"tier", "op"},
	)

	CRMSyncContacts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salgsmotor_crm_sync_contacts_total",
			Help: "CRM sync contacts by result",
		},
		[]string{"result"},
	)
)
