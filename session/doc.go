// Package session manages server-side session records: creation with
// unguessable ids, sliding idle expiry with a separate remember-me
// timeout, rotation on privilege change, an explicit invalidation set,
// and the fresh-auth window gating sensitive operations. Registries
// come in memory and Redis flavors behind one interface.
package session
