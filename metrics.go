package goGuard

import "github.com/kharven/goGuard/internal/metrics"

// Metric IDs re-exported for exposition packages and callers reading
// snapshots.
const (
	MetricAuthorizeAllow     = metrics.MetricAuthorizeAllow
	MetricAuthorizeDeny      = metrics.MetricAuthorizeDeny
	MetricAuthorizeReauth    = metrics.MetricAuthorizeReauth
	MetricRateLimitHit       = metrics.MetricRateLimitHit
	MetricSessionCreated     = metrics.MetricSessionCreated
	MetricSessionRotated     = metrics.MetricSessionRotated
	MetricSessionInvalidated = metrics.MetricSessionInvalidated
	MetricSessionExpired     = metrics.MetricSessionExpired
	MetricSessionIPMismatch  = metrics.MetricSessionIPMismatch
	MetricLogoutAll          = metrics.MetricLogoutAll
	MetricPermissionDenied   = metrics.MetricPermissionDenied
	MetricOverrideApplied    = metrics.MetricOverrideApplied
	MetricGrantIssued        = metrics.MetricGrantIssued
	MetricGrantRevoked       = metrics.MetricGrantRevoked
	MetricGrantExpired       = metrics.MetricGrantExpired
	MetricRoleAssigned       = metrics.MetricRoleAssigned
	MetricRoleRevoked        = metrics.MetricRoleRevoked
	MetricVerificationDeny   = metrics.MetricVerificationDeny
	MetricVerificationReauth = metrics.MetricVerificationReauth
	MetricAccountLocked      = metrics.MetricAccountLocked
	MetricAuthorizeLatency   = metrics.MetricAuthorizeLatency
)

// MetricsSnapshot returns a point-in-time deep copy of the engine's
// counters and histograms. Exposition formats live in metrics/export.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}
