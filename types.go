package goGuard

import (
	"strings"
	"time"

	"github.com/kharven/goGuard/internal/audit"
	"github.com/kharven/goGuard/internal/metrics"
	"github.com/kharven/goGuard/internal/verify"
)

// ActionClass buckets actions by impact. Classification drives tier
// selection, fresh-auth enforcement, and verification scoring.
type ActionClass uint8

const (
	ClassRead ActionClass = iota
	ClassWrite
	ClassSensitive
	ClassDestructive
)

func (c ActionClass) String() string {
	switch c {
	case ClassRead:
		return "read"
	case ClassWrite:
		return "write"
	case ClassSensitive:
		return "sensitive"
	case ClassDestructive:
		return "destructive"
	default:
		return "unknown"
	}
}

// ClassifyAction infers the impact class from the action verb. Unknown
// verbs classify as writes, the safer middle ground.
func ClassifyAction(action string) ActionClass {
	verb := action
	if i := strings.IndexByte(action, '_'); i > 0 {
		verb = action[:i]
	}
	switch verb {
	case "read", "get", "list", "view", "search":
		return ClassRead
	case "delete", "destroy", "purge", "wipe":
		return ClassDestructive
	case "export", "change", "grant", "revoke", "admin", "impersonate", "transfer":
		return ClassSensitive
	default:
		return ClassWrite
	}
}

// HourRange is a daily access window in local hours. From > To wraps
// midnight.
type HourRange struct {
	From int
	To   int
}

// ResourceAttributes carries the attribute gates evaluated against a
// request. All zero values mean no gate.
type ResourceAttributes struct {
	OwnerID            string
	TeamID             string
	IPAllowList        []string
	AllowedHours       *HourRange
	RequiredDepartment string
}

// RequestContext is everything the engine needs to decide one request.
// Callers populate what they know; absent fields skip the
// corresponding checks.
type RequestContext struct {
	SessionToken string

	// Identity fields are filled from the validated session when a
	// token is present; explicit values are used for token-less calls.
	UserID string
	Role   string
	TeamID string

	Department string

	Action     string
	Resource   string
	ResourceID string

	ResourceAttrs *ResourceAttributes

	IP                string
	DeviceFingerprint string
	MFAPassed         bool
}

// DecisionCode is the engine's verdict.
type DecisionCode uint8

const (
	DecisionAllow DecisionCode = iota
	DecisionDeny
	DecisionRequireReauth
)

func (c DecisionCode) String() string {
	switch c {
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	case DecisionRequireReauth:
		return "require_reauth"
	default:
		return "unknown"
	}
}

// Decision is the authorization verdict handed back to the caller.
// Reason is deliberately generic; the specific failing rule is written
// to the audit log only, so responses don't leak policy shape.
type Decision struct {
	Code       DecisionCode
	Reason     string
	HTTPStatus int
	RetryAfter time.Duration
	// RedirectHint suggests where to send the user for step-up.
	RedirectHint string
	// Score is the trust score when verification ran, else -1.
	Score int
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool { return d.Code == DecisionAllow }

// Generic caller-facing reasons.
const (
	ReasonOK             = "ok"
	ReasonRateLimited    = "rate_limited"
	ReasonUnauthed       = "unauthenticated"
	ReasonForbidden      = "forbidden"
	ReasonLocked         = "account_locked"
	ReasonReauthRequired = "reauthentication_required"
)

// RoleSpec declares one role at build time.
type RoleSpec struct {
	Name        string
	Level       int
	Permissions []string
}

// SessionOptions parameterizes StartSession.
type SessionOptions struct {
	IP                string
	DeviceFingerprint string
	Remember          bool
}

// SessionInfo is the caller-facing view of a validated session.
type SessionInfo struct {
	SessionID    string
	UserID       string
	Role         string
	CreatedAt    time.Time
	LastActivity time.Time
	Remember     bool
	IPMismatch   bool
}

// Aliases re-exporting the audit surface at the root.
type (
	AuditEvent = audit.Event
	AuditSink  = audit.Sink
	AuditQuery = audit.Query
)

// Aliases re-exporting the metrics surface at the root.
type (
	MetricID        = metrics.MetricID
	MetricsSnapshot = metrics.Snapshot
)

// VerificationEvent is one recorded trust evaluation.
type VerificationEvent = verify.Event

func (c ActionClass) verifyClass() verify.Class {
	switch c {
	case ClassRead:
		return verify.ClassRead
	case ClassWrite:
		return verify.ClassWrite
	case ClassSensitive:
		return verify.ClassSensitive
	default:
		return verify.ClassDestructive
	}
}
