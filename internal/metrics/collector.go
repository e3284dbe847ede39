// Package metrics exposes Prometheus metrics for service lifecycles.
//
// A Collector is fed through supervisor state changes and records how long
// starts take, how they end, how stops end, crashes, and the current state
// of each service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/giantswarm/browserenv/internal/supervisor"
)

const namespace = "browserenv"

// Collector records lifecycle metrics. It is safe for concurrent use.
type Collector struct {
	state         *prometheus.GaugeVec
	startDuration *prometheus.HistogramVec
	startsTotal   *prometheus.CounterVec
	stopsTotal    *prometheus.CounterVec
	crashesTotal  *prometheus.CounterVec

	mu        sync.Mutex
	startedAt map[string]time.Time
	now       func() time.Time
}

// NewCollector creates a collector registered with prometheus.DefaultRegisterer.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector registered with registry.
func NewCollectorWithRegistry(registry prometheus.Registerer) *Collector {
	c := &Collector{
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_state",
				Help:      "Current lifecycle state per service (1 for the active state, 0 otherwise)",
			},
			[]string{"service", "state"},
		),
		startDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "service_start_duration_seconds",
				Help:      "Time from spawn request until a start settled",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"service", "outcome"},
		),
		startsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "service_starts_total",
				Help:      "Settled start attempts by outcome (running, failed, aborted)",
			},
			[]string{"service", "outcome"},
		),
		stopsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "service_stops_total",
				Help:      "Completed stops of running services",
			},
			[]string{"service"},
		),
		crashesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "service_crashes_total",
				Help:      "Processes that exited while running",
			},
			[]string{"service"},
		),
		startedAt: make(map[string]time.Time),
		now:       time.Now,
	}
	registry.MustRegister(c.state, c.startDuration, c.startsTotal, c.stopsTotal, c.crashesTotal)
	return c
}

// OnStateChange matches supervisor.Config.OnStateChange.
func (c *Collector) OnStateChange(service string, from, to supervisor.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range supervisor.States() {
		v := 0.0
		if s == to {
			v = 1
		}
		c.state.WithLabelValues(service, s.String()).Set(v)
	}

	now := c.now()
	switch to {
	case supervisor.Starting:
		c.startedAt[service] = now
	case supervisor.Running:
		c.settleStart(service, "running", now)
	case supervisor.Failed:
		if from == supervisor.Starting {
			c.settleStart(service, "failed", now)
		}
	case supervisor.Stopped:
		if from == supervisor.Starting {
			c.settleStart(service, "aborted", now)
		} else {
			c.stopsTotal.WithLabelValues(service).Inc()
		}
	case supervisor.Crashed:
		c.crashesTotal.WithLabelValues(service).Inc()
	}
}

// settleStart must be called with c.mu held.
func (c *Collector) settleStart(service, outcome string, now time.Time) {
	c.startsTotal.WithLabelValues(service, outcome).Inc()
	if began, ok := c.startedAt[service]; ok {
		c.startDuration.WithLabelValues(service, outcome).Observe(now.Sub(began).Seconds())
		delete(c.startedAt, service)
	}
}
