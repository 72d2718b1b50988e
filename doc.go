// Package goGuard provides a layered access-control and
// session-security engine: tiered sliding-window rate limiting,
// server-side sessions with rotation and an invalidation set,
// bitmask-based RBAC with per-user overrides and time-boxed grants,
// continuous trust-score verification, and a queryable audit log.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goGuard is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Decision, SessionInfo, MetricsSnapshot,
// etc.). Internal coordination — window pruning, override resolution,
// audit dispatch, scoring — lives under internal/ and is never
// exported directly.
//
// # Decision contract
//
// Authorize evaluates layers in a fixed order — rate limit, session,
// permission, continuous verification — and the first hard failure
// short-circuits. Callers receive generic denial reasons; the specific
// failing rule is written to the audit log only. Infrastructure
// failures always fail closed.
package goGuard
