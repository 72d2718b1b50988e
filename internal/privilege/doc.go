// Package privilege implements per-user role assignments and
// time-boxed elevated grants layered on top of the role configuration.
package privilege
