// Package metrics exposes engine counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine's Prometheus instruments. A nil *Collector is
// valid and turns every method into a no-op, so instrumentation stays
// optional at call sites.
type Collector struct {
	registry *prometheus.Registry

	recordsRead        prometheus.Counter
	recordsDropped     prometheus.Counter
	eventsApplied      prometheus.Counter
	duplicatesSkipped  prometheus.Counter
	unknownKinds       prometheus.Counter
	defensiveCreations prometheus.Counter
	sessionsActive     prometheus.Gauge
}

// NewCollector creates and registers the engine metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		recordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coroviz_records_read_total",
			Help: "Raw records read from the event source.",
		}),
		recordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coroviz_records_dropped_total",
			Help: "Malformed records dropped before reduction.",
		}),
		eventsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coroviz_events_applied_total",
			Help: "Events applied to a session snapshot.",
		}),
		duplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coroviz_duplicates_skipped_total",
			Help: "Redelivered sequence numbers skipped for idempotence.",
		}),
		unknownKinds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coroviz_unknown_kinds_total",
			Help: "Records carrying an unrecognized event kind.",
		}),
		defensiveCreations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coroviz_defensive_creations_total",
			Help: "Nodes created lazily by a reference before their created event.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coroviz_sessions_active",
			Help: "Sessions currently held in memory.",
		}),
	}

	c.registry.MustRegister(
		c.recordsRead,
		c.recordsDropped,
		c.eventsApplied,
		c.duplicatesSkipped,
		c.unknownKinds,
		c.defensiveCreations,
		c.sessionsActive,
	)
	return c
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordRead() {
	if c != nil {
		c.recordsRead.Inc()
	}
}

func (c *Collector) RecordDropped() {
	if c != nil {
		c.recordsDropped.Inc()
	}
}

func (c *Collector) EventApplied() {
	if c != nil {
		c.eventsApplied.Inc()
	}
}

func (c *Collector) DuplicateSkipped() {
	if c != nil {
		c.duplicatesSkipped.Inc()
	}
}

func (c *Collector) UnknownKind() {
	if c != nil {
		c.unknownKinds.Inc()
	}
}

func (c *Collector) DefensiveCreation() {
	if c != nil {
		c.defensiveCreations.Inc()
	}
}

func (c *Collector) SetSessionsActive(n int) {
	if c != nil {
		c.sessionsActive.Set(float64(n))
	}
}
