// Package metrics implements the engine's in-process metric counters.
//
// Counters are plain atomics indexed by MetricID so the hot authorize
// path never allocates or takes a lock. Exporters read point-in-time
// snapshots via Metrics.Snapshot.
package metrics
