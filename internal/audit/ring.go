package audit

import (
	"context"
	"sync"
	"time"
)

// Ring is an append-only, bounded event store. Once the retention cap
// is reached the oldest entry is evicted for every append. Losing old
// entries past the cap is a documented property, not a failure mode.
//
// Ring implements Sink so it can serve as the dispatcher's default
// destination while still being queryable.
type Ring struct {
	mu     sync.Mutex
	buf    []Event
	next   int
	filled bool
}

const defaultRetention = 4096

// NewRing creates a ring log retaining at most retain entries.
func NewRing(retain int) *Ring {
	if retain <= 0 {
		retain = defaultRetention
	}
	return &Ring{
		buf: make([]Event, retain),
	}
}

// Emit appends the event, evicting the oldest entry when full.
func (r *Ring) Emit(_ context.Context, event Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = event
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.filled = true
	}
}

// Len reports the number of retained entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filled {
		return len(r.buf)
	}
	return r.next
}

// Query selects retained entries, newest first.
type Query struct {
	ActorID   string
	EventType string
	Since     time.Time
	Until     time.Time
	Offset    int
	Limit     int
}

// Query returns retained entries matching q, newest first. A zero
// Limit returns everything after Offset.
func (r *Ring) Query(q Query) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.filled {
		count = len(r.buf)
	}

	var out []Event
	skipped := 0
	for i := 0; i < count; i++ {
		// Walk backwards from the most recent entry.
		idx := r.next - 1 - i
		if idx < 0 {
			idx += len(r.buf)
		}
		event := r.buf[idx]

		if q.ActorID != "" && event.ActorID != q.ActorID {
			continue
		}
		if q.EventType != "" && event.EventType != q.EventType {
			continue
		}
		if !q.Since.IsZero() && event.Timestamp.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && event.Timestamp.After(q.Until) {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		out = append(out, event)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}
