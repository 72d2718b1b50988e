package verify

import (
	"sync"
	"time"
)

// Class buckets actions by impact for scoring purposes.
type Class uint8

const (
	ClassRead Class = iota
	ClassWrite
	ClassSensitive
	ClassDestructive
)

// Outcome is the verdict of one evaluation.
type Outcome uint8

const (
	OutcomeAllow Outcome = iota
	OutcomeRequireReauth
	OutcomeDeny
)

// Deltas are the signed score adjustments. The additive, clamped
// 0-100 structure is the invariant; the exact values are heuristic
// configuration, not derived from a calibrated risk model.
type Deltas struct {
	ReadAction        int
	WriteAction       int
	SensitiveAction   int
	DestructiveAction int
	OffHours          int
	KnownDevice       int
	NewDevice         int
	KnownIP           int
	NewIP             int
	MFAPassed         int
}

// Config tunes the scoring engine.
type Config struct {
	BaseScore   int
	DenyBelow   int
	ReauthBelow int
	Deltas      Deltas

	// Off-hours window, local hours. Start > End wraps midnight.
	OffHoursStart int
	OffHoursEnd   int

	// MaxSessionAge triggers the age-based step-up in VerifySession.
	MaxSessionAge time.Duration

	// HistoryLimit caps retained verification events per user.
	HistoryLimit int

	Now func() time.Time
}

// Context carries the per-request signals consumed by Evaluate.
type Context struct {
	IP                string
	DeviceFingerprint string
	MFAPassed         bool
	At                time.Time
}

// Result is the outcome of one evaluation.
type Result struct {
	Outcome Outcome
	Score   int
	Reason  string
}

// Engine computes a per-request trust score and keeps per-user
// familiarity state (seen devices and IPs) plus a bounded event
// history for trend queries.
type Engine struct {
	cfg Config

	mu      sync.Mutex
	devices map[string]map[string]time.Time
	ips     map[string]map[string]time.Time
	history map[string][]Event

	evaluations uint64
	denied      uint64
	reauths     uint64
}

// Event records one evaluation for audit and trend analysis.
type Event struct {
	Timestamp time.Time
	UserID    string
	Action    string
	Score     int
	Outcome   Outcome
	Reason    string
}

// Stats is an aggregate counter snapshot.
type Stats struct {
	Evaluations uint64
	Denied      uint64
	Reauths     uint64
}

// New creates a verification Engine.
func New(cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 256
	}
	return &Engine{
		cfg:     cfg,
		devices: make(map[string]map[string]time.Time),
		ips:     make(map[string]map[string]time.Time),
		history: make(map[string][]Event),
	}
}

// Evaluate scores the request and returns allow, require-reauth, or
// deny. The evaluation is always recorded in the user's history.
func (e *Engine) Evaluate(userID, action string, class Class, vctx Context) Result {
	at := vctx.At
	if at.IsZero() {
		at = e.cfg.Now()
	}

	score := e.cfg.BaseScore
	reason := ""

	switch class {
	case ClassRead:
		score += e.cfg.Deltas.ReadAction
	case ClassWrite:
		score += e.cfg.Deltas.WriteAction
	case ClassSensitive:
		score += e.cfg.Deltas.SensitiveAction
	case ClassDestructive:
		score += e.cfg.Deltas.DestructiveAction
	}

	if e.offHours(at.Hour()) {
		score += e.cfg.Deltas.OffHours
		reason = "off_hours"
	}

	e.mu.Lock()
	if vctx.DeviceFingerprint != "" {
		if e.seenLocked(e.devices, userID, vctx.DeviceFingerprint, at) {
			score += e.cfg.Deltas.KnownDevice
		} else {
			score += e.cfg.Deltas.NewDevice
			reason = "new_device"
		}
	}
	if vctx.IP != "" {
		if e.seenLocked(e.ips, userID, vctx.IP, at) {
			score += e.cfg.Deltas.KnownIP
		} else {
			score += e.cfg.Deltas.NewIP
			if reason == "" {
				reason = "new_location"
			}
		}
	}
	e.mu.Unlock()

	if vctx.MFAPassed {
		score += e.cfg.Deltas.MFAPassed
	}

	score = clamp(score)

	outcome := OutcomeAllow
	switch {
	case score < e.cfg.DenyBelow:
		outcome = OutcomeDeny
		if reason == "" {
			reason = "score_below_floor"
		}
	case score < e.cfg.ReauthBelow && class >= ClassSensitive && !vctx.MFAPassed:
		outcome = OutcomeRequireReauth
		if reason == "" {
			reason = "step_up_required"
		}
	}

	e.record(Event{
		Timestamp: at,
		UserID:    userID,
		Action:    action,
		Score:     score,
		Outcome:   outcome,
		Reason:    reason,
	})

	return Result{Outcome: outcome, Score: score, Reason: reason}
}

// VerifySession is the narrow session-age step-up check, independent
// of the scoring path. Returns false once age exceeds the threshold.
func (e *Engine) VerifySession(userID string, sessionAge time.Duration) bool {
	if e.cfg.MaxSessionAge <= 0 || sessionAge < e.cfg.MaxSessionAge {
		return true
	}
	e.record(Event{
		Timestamp: e.cfg.Now(),
		UserID:    userID,
		Action:    "session_age_check",
		Score:     0,
		Outcome:   OutcomeRequireReauth,
		Reason:    "session_age_exceeded",
	})
	return false
}

// UserRiskScore aggregates the user's recent history into a 0-100
// risk figure: the inverse of the mean trust score. No history means
// neutral risk.
func (e *Engine) UserRiskScore(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	events := e.history[userID]
	if len(events) == 0 {
		return 100 - clamp(e.cfg.BaseScore)
	}
	total := 0
	counted := 0
	for _, ev := range events {
		if ev.Action == "session_age_check" {
			continue
		}
		total += ev.Score
		counted++
	}
	if counted == 0 {
		return 100 - clamp(e.cfg.BaseScore)
	}
	return clamp(100 - total/counted)
}

// History returns the user's retained events, newest first.
func (e *Engine) History(userID string, limit int) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	events := e.history[userID]
	out := make([]Event, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, events[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Stats returns aggregate evaluation counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Evaluations: e.evaluations,
		Denied:      e.denied,
		Reauths:     e.reauths,
	}
}

func (e *Engine) record(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.evaluations++
	switch ev.Outcome {
	case OutcomeDeny:
		e.denied++
	case OutcomeRequireReauth:
		e.reauths++
	}

	events := append(e.history[ev.UserID], ev)
	if len(events) > e.cfg.HistoryLimit {
		events = events[len(events)-e.cfg.HistoryLimit:]
	}
	e.history[ev.UserID] = events
}

// seenLocked reports prior familiarity and records the current
// sighting either way.
func (e *Engine) seenLocked(table map[string]map[string]time.Time, userID, key string, at time.Time) bool {
	seen, ok := table[userID]
	if !ok {
		seen = make(map[string]time.Time)
		table[userID] = seen
	}
	_, known := seen[key]
	seen[key] = at
	return known
}

func (e *Engine) offHours(hour int) bool {
	start, end := e.cfg.OffHoursStart, e.cfg.OffHoursEnd
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
