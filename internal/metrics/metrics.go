package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domus_searches_total",
			Help: "Property searches served, by result source",
		},
		[]string{"source"},
	)

	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domus_provider_fallbacks_total",
			Help: "Searches answered with mock data, by reason",
		},
		[]string{"reason"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domus_provider_request_duration_seconds",
			Help:    "Duration of generative provider calls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"provider", "outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domus_search_cache_lookups_total",
			Help: "Search cache lookups, by result (hit, stale, miss)",
		},
		[]string{"result"},
	)

	CompareToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domus_compare_toggles_total",
			Help: "Comparison list toggles, by outcome (added, removed, full)",
		},
		[]string{"outcome"},
	)

	RefreshJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domus_refresh_jobs_total",
			Help: "Background cache refresh jobs, by outcome",
		},
		[]string{"outcome"},
	)

	IndexedListings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "domus_indexed_listings_total",
			Help: "Listings written to the search index",
		},
	)
)
