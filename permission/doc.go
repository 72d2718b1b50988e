// Package permission implements the closed permission vocabulary and
// the role configuration built on top of it.
//
// Permission names are registered once at engine build time and mapped
// to bit positions in a fixed-width mask, so role permission checks
// are a bit test rather than a set lookup. Roles carry an ordinal
// level used for hierarchical tier comparisons.
package permission
