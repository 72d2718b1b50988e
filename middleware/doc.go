// Package middleware exposes HTTP adapters over the goGuard engine.
//
// # Guards
//
//   - [Guard] — runs the full Authorize pipeline for an action and
//     resource, writing 401/403/429 or a step-up redirect hint on
//     denial.
//   - [RequireSession] — validates identity only, without the
//     permission and verification layers.
//
// Each guard extracts the session token from the Authorization header
// or the session cookie, attaches the caller IP and user agent to the
// request context, and injects the engine's verdict for downstream
// handlers.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It makes
// no authorization decisions of its own and never parses tokens
// directly.
package middleware
