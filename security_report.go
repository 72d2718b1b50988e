package goGuard

import "time"

// SecurityReport is a point-in-time description of the engine's active
// posture, suitable for ops dashboards and review checklists.
type SecurityReport struct {
	SigningAlgorithm string
	TokenTTL         time.Duration

	SessionTimeout   time.Duration
	RememberTimeout  time.Duration
	FreshAuthWindow  time.Duration
	RedisBacked      bool

	RateLimits TierReport

	VerificationActive bool
	DenyBelow          int
	ReauthBelow        int

	LockoutActive   bool
	LockoutDuration time.Duration

	AuditActive   bool
	MetricsActive bool

	PermissionBits  int
	RegisteredRoles int
}

// TierReport summarizes the three limiter tiers.
type TierReport struct {
	LoginMax        int
	LoginWindow     time.Duration
	APIMax          int
	APIWindow       time.Duration
	SensitiveMax    int
	SensitiveWindow time.Duration
}

// SecurityReport reports the engine's effective security posture.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		SigningAlgorithm: e.config.JWT.SigningMethod,
		TokenTTL:         e.config.JWT.TTL,
		SessionTimeout:   e.config.Session.Timeout,
		RememberTimeout:  e.config.Session.RememberTimeout,
		FreshAuthWindow:  e.config.Session.FreshAuthWindow,
		RedisBacked:      e.redisBacked,
		RateLimits: TierReport{
			LoginMax:        e.config.RateLimit.Login.Max,
			LoginWindow:     e.config.RateLimit.Login.Window,
			APIMax:          e.config.RateLimit.API.Max,
			APIWindow:       e.config.RateLimit.API.Window,
			SensitiveMax:    e.config.RateLimit.Sensitive.Max,
			SensitiveWindow: e.config.RateLimit.Sensitive.Window,
		},
		VerificationActive: true,
		DenyBelow:          e.config.Verification.DenyBelow,
		ReauthBelow:        e.config.Verification.ReauthBelow,
		LockoutActive:      e.config.Lockout.Enabled,
		LockoutDuration:    e.config.Lockout.Duration,
		AuditActive:        e.config.Audit.Enabled,
		MetricsActive:      e.config.Metrics.Enabled,
		PermissionBits:     e.registry.MaxBits(),
		RegisteredRoles:    e.roles.Count(),
	}
}
