// Package resolver implements base permission resolution and resource
// scoping: per-user overrides beat role grants, role grants beat the
// default fallback table, and everything else is default deny.
package resolver
