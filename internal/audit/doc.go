// Package audit implements the engine's audit pipeline: the event
// model, pluggable sinks, the asynchronous dispatcher, and the bounded
// ring log that backs paged audit queries.
package audit
