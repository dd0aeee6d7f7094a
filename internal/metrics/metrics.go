// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RankerRuns counts external ranking process runs.
	// Labels: ranker (search, user), outcome (ok, exit, stderr, timeout,
	// canceled, schema, start).
	RankerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_ranker_runs_total",
			Help: "External ranking process runs by outcome",
		},
		[]string{"ranker", "outcome"},
	)

	// SearchFallbacks counts keyword store fallbacks.
	// Labels: path (search, chat, user_recommendations).
	SearchFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_search_fallbacks_total",
			Help: "Fallbacks from semantic ranking to store queries",
		},
		[]string{"path"},
	)

	CoPurchaseFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_copurchase_fallbacks_total",
			Help: "Co-purchase requests answered with best sellers",
		},
	)

	// Generation counts language generation calls.
	// Labels: outcome (ok, fallback).
	Generation = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_generation_total",
			Help: "Language generation calls by outcome",
		},
		[]string{"outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shop_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
