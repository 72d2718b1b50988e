// Package rate implements the strict sliding-window rate limiter.
//
// The window is the true trailing interval ending at "now", not a
// clock-aligned bucket, so bursts across a boundary are still bounded.
// Two Store implementations exist: an in-process mutex-guarded store
// and a Redis sorted-set store for multi-instance deployments.
package rate
