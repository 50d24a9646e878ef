package cache

// metrics.go is a thin abstraction over Prometheus so that the cache can be
// used with or without metrics. When the caller passes a *prometheus.Registry
// via WithMetrics, labeled collectors are created and registered; otherwise a
// no-op sink is used and the hot path does not pay for metric updates.
//
// All metrics are shard-level; aggregation (sum, rate) is left to the
// Prometheus side.
//
// ┌──────────────────────────────┬───────┬────────┐
// │ Metric                       │ Type  │ Labels │
// ├───────────────────────────────┼───────┼────────┤
// │ arcclock_hits_total           │ Ctr   │ shard  │
// │ arcclock_misses_total         │ Ctr   │ shard  │
// │ arcclock_evictions_total      │ Ctr   │ shard  │
// │ arcclock_ring_weight_bytes    │ Gge   │ shard,ring │
// │ arcclock_ring_entries         │ Gge   │ shard,ring │
// │ arcclock_ghost_entries        │ Gge   │ shard  │
// └──────────────────────────────┴───────┴────────┘
//
// © 2025 arcclock authors. MIT License.

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink abstracts the concrete backend (Prometheus vs noop). Cache and
// shard only ever see these methods.
type metricsSink interface {
	incHit(shard uint8)
	incMiss(shard uint8)
	incEvict(shard uint8)
	setRingWeight(shard uint8, ring string, weight uint32)
	setRingEntries(shard uint8, ring string, n uint32)
	setGhostEntries(shard uint8, n uint32)
}

type noopMetrics struct{}

func (noopMetrics) incHit(uint8)                          {}
func (noopMetrics) incMiss(uint8)                         {}
func (noopMetrics) incEvict(uint8)                        {}
func (noopMetrics) setRingWeight(uint8, string, uint32)   {}
func (noopMetrics) setRingEntries(uint8, string, uint32)  {}
func (noopMetrics) setGhostEntries(uint8, uint32)         {}

type promMetrics struct {
	hits        *prometheus.CounterVec
	misses      *prometheus.CounterVec
	evictions   *prometheus.CounterVec
	ringWeight  *prometheus.GaugeVec
	ringEntries *prometheus.GaugeVec
	ghosts      *prometheus.GaugeVec
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	shardLabel := []string{"shard"}
	ringLabels := []string{"shard", "ring"}

	pm := &promMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcclock", Name: "hits_total", Help: "Number of cache hits.",
		}, shardLabel),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcclock", Name: "misses_total", Help: "Number of cache misses.",
		}, shardLabel),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcclock", Name: "evictions_total", Help: "Number of entries evicted by CLOCK-Pro.",
		}, shardLabel),
		ringWeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "arcclock", Name: "ring_weight_bytes", Help: "Resident weight per ring.",
		}, ringLabels),
		ringEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "arcclock", Name: "ring_entries", Help: "Resident entry count per ring.",
		}, ringLabels),
		ghosts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "arcclock", Name: "ghost_entries", Help: "Ghost entry count per shard.",
		}, shardLabel),
	}

	reg.MustRegister(pm.hits, pm.misses, pm.evictions, pm.ringWeight, pm.ringEntries, pm.ghosts)
	return pm
}

func (m *promMetrics) incHit(shard uint8)   { m.hits.WithLabelValues(strconv.Itoa(int(shard))).Inc() }
func (m *promMetrics) incMiss(shard uint8)  { m.misses.WithLabelValues(strconv.Itoa(int(shard))).Inc() }
func (m *promMetrics) incEvict(shard uint8) { m.evictions.WithLabelValues(strconv.Itoa(int(shard))).Inc() }

func (m *promMetrics) setRingWeight(shard uint8, ring string, weight uint32) {
	m.ringWeight.WithLabelValues(strconv.Itoa(int(shard)), ring).Set(float64(weight))
}

func (m *promMetrics) setRingEntries(shard uint8, ring string, n uint32) {
	m.ringEntries.WithLabelValues(strconv.Itoa(int(shard)), ring).Set(float64(n))
}

func (m *promMetrics) setGhostEntries(shard uint8, n uint32) {
	m.ghosts.WithLabelValues(strconv.Itoa(int(shard))).Set(float64(n))
}

// newMetricsSink picks the backend. Caller guarantees reg may be nil.
func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
