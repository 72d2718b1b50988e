package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram bucket.
type MetricID uint16

const (
	MetricAuthorizeAllow MetricID = iota
	MetricAuthorizeDeny
	MetricAuthorizeReauth
	MetricRateLimitHit
	MetricSessionCreated
	MetricSessionRotated
	MetricSessionInvalidated
	MetricSessionExpired
	MetricSessionIPMismatch
	MetricLogoutAll
	MetricPermissionDenied
	MetricOverrideApplied
	MetricGrantIssued
	MetricGrantRevoked
	MetricGrantExpired
	MetricRoleAssigned
	MetricRoleRevoked
	MetricVerificationDeny
	MetricVerificationReauth
	MetricAccountLocked
	MetricAuthorizeLatency

	MetricIDCount
)

// histogramBucketCount matches the exposition bounds in metrics/export.
const histogramBucketCount = 8

var latencyBounds = [histogramBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// Config controls metric collection.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds lock-free counters and optional latency histograms.
// All operations are no-ops when collection is disabled.
type Metrics struct {
	enabled    bool
	latency    bool
	counters   [MetricIDCount]atomic.Uint64
	histograms [MetricIDCount][histogramBucketCount]atomic.Uint64
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New creates a Metrics instance. A nil-safe disabled instance is
// returned when cfg.Enabled is false.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Observe records a latency sample into the histogram for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.latency || id >= MetricIDCount {
		return
	}
	bucket := len(latencyBounds)
	for i, bound := range latencyBounds {
		if d <= bound {
			bucket = i
			break
		}
	}
	m.histograms[id][bucket].Add(1)
}

// Snapshot returns a deep copy of all non-zero counters and histograms.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   make(map[MetricID]uint64),
		Histograms: make(map[MetricID][]uint64),
	}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := m.counters[id].Load(); v > 0 {
			snap.Counters[id] = v
		}
	}
	if !m.latency {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		var total uint64
		buckets := make([]uint64, histogramBucketCount)
		for i := range buckets {
			buckets[i] = m.histograms[id][i].Load()
			total += buckets[i]
		}
		if total > 0 {
			snap.Histograms[id] = buckets
		}
	}
	return snap
}
