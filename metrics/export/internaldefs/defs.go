// Package internaldefs carries the shared metric name table consumed
// by the prometheus and otel exporters, so both expose identical
// series names.
package internaldefs

import (
	goGuard "github.com/kharven/goGuard"
)

// CounterDef names one engine counter for exposition.
type CounterDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exposition.
type HistogramDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// CounterDefs is the canonical counter name table.
var CounterDefs = []CounterDef{
	{ID: goGuard.MetricAuthorizeAllow, Name: "gguard_authorize_allow_total", Help: "Authorized requests."},
	{ID: goGuard.MetricAuthorizeDeny, Name: "gguard_authorize_deny_total", Help: "Denied requests."},
	{ID: goGuard.MetricAuthorizeReauth, Name: "gguard_authorize_reauth_total", Help: "Requests requiring step-up authentication."},
	{ID: goGuard.MetricRateLimitHit, Name: "gguard_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: goGuard.MetricSessionCreated, Name: "gguard_session_created_total", Help: "Created sessions."},
	{ID: goGuard.MetricSessionRotated, Name: "gguard_session_rotated_total", Help: "Rotated sessions."},
	{ID: goGuard.MetricSessionInvalidated, Name: "gguard_session_invalidated_total", Help: "Invalidated sessions."},
	{ID: goGuard.MetricSessionExpired, Name: "gguard_session_expired_total", Help: "Sessions rejected for inactivity."},
	{ID: goGuard.MetricSessionIPMismatch, Name: "gguard_session_ip_mismatch_total", Help: "Sessions observed from outside their bound network."},
	{ID: goGuard.MetricLogoutAll, Name: "gguard_logout_all_total", Help: "Logout-all operations."},
	{ID: goGuard.MetricPermissionDenied, Name: "gguard_permission_denied_total", Help: "Permission and attribute-gate denials."},
	{ID: goGuard.MetricOverrideApplied, Name: "gguard_override_applied_total", Help: "Permission overrides installed."},
	{ID: goGuard.MetricGrantIssued, Name: "gguard_grant_issued_total", Help: "Temporary privilege grants issued."},
	{ID: goGuard.MetricGrantRevoked, Name: "gguard_grant_revoked_total", Help: "Temporary privilege grants revoked."},
	{ID: goGuard.MetricGrantExpired, Name: "gguard_grant_expired_total", Help: "Temporary privilege grants removed by sweep."},
	{ID: goGuard.MetricRoleAssigned, Name: "gguard_role_assigned_total", Help: "Role assignments."},
	{ID: goGuard.MetricRoleRevoked, Name: "gguard_role_revoked_total", Help: "Role revocations."},
	{ID: goGuard.MetricVerificationDeny, Name: "gguard_verification_deny_total", Help: "Requests denied by trust scoring."},
	{ID: goGuard.MetricVerificationReauth, Name: "gguard_verification_reauth_total", Help: "Requests escalated to step-up by trust scoring."},
	{ID: goGuard.MetricAccountLocked, Name: "gguard_account_locked_total", Help: "Account lock operations."},
}

// HistogramDefs is the canonical histogram name table.
var HistogramDefs = []HistogramDef{
	{ID: goGuard.MetricAuthorizeLatency, Name: "gguard_authorize_latency_seconds", Help: "Authorize latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are metric-name-safe forms of the bounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw snapshot buckets to the fixed
// width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative form.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
