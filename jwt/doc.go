// Package jwt signs and verifies the session transport tokens. Tokens
// carry only the session id, user id, and role; revocation is handled
// by the session registry, never by token expiry alone.
package jwt
