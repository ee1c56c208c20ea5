// Package metrics declares the Prometheus collectors shared across the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GraphQLOperations counts executed operations by type and outcome.
	GraphQLOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackernews_graphql_operations_total",
			Help: "GraphQL operations executed, by operation type and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ResolverErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackernews_resolver_errors_total",
			Help: "Resolver errors returned to clients, by error code",
		},
		[]string{"code"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hackernews_store_query_duration_seconds",
			Help:    "Persistence gateway operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackernews_events_published_total",
			Help: "Events published on the in-process bus, by topic",
		},
		[]string{"topic"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackernews_events_dropped_total",
			Help: "Events dropped because a subscriber buffer was full, by topic",
		},
		[]string{"topic"},
	)

	Subscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hackernews_subscribers",
			Help: "Live subscribers, by topic",
		},
		[]string{"topic"},
	)
)
