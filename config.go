package goGuard

import (
	"errors"
	"time"
)

// Config is the full engine configuration. Zero values are filled from
// defaultConfig by New(); Build validates the final shape.
type Config struct {
	JWT          JWTConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	Verification VerificationConfig
	Permission   PermissionConfig
	Lockout      LockoutConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the token signing material.
type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes session lifetimes.
type SessionConfig struct {
	// Timeout is the idle timeout for ordinary sessions.
	Timeout time.Duration
	// RememberTimeout applies when the session carries the remember
	// flag.
	RememberTimeout time.Duration
	// FreshAuthWindow bounds how recently the user must have proven
	// their identity for sensitive operations.
	FreshAuthWindow time.Duration
	// InvalidationRetention bounds the invalidated-id set.
	InvalidationRetention time.Duration
	RedisPrefix           string
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// TierLimit sizes one limiter tier.
type TierLimit struct {
	Max    int
	Window time.Duration
}

// RateLimitConfig sizes the three pre-wired tiers.
type RateLimitConfig struct {
	Login       TierLimit
	API         TierLimit
	Sensitive   TierLimit
	RedisPrefix string
}

/*
====================================
VERIFICATION CONFIG
====================================
*/

// ScoreDeltas are the signed trust-score adjustments. Values are
// heuristic configuration, not a calibrated risk model.
type ScoreDeltas struct {
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

// VerificationConfig tunes the continuous-verification engine.
type VerificationConfig struct {
	BaseScore   int
	DenyBelow   int
	ReauthBelow int
	Deltas      ScoreDeltas

	// Off-hours window, local hours. Start > End wraps midnight.
	OffHoursStart int
	OffHoursEnd   int

	// MaxSessionAge triggers an age-based step-up independent of the
	// score path.
	MaxSessionAge time.Duration

	// HistoryLimit caps retained verification events per user.
	HistoryLimit int
}

/*
====================================
PERMISSION CONFIG
====================================
*/

// PermissionConfig shapes the permission registry.
type PermissionConfig struct {
	MaxBits         int  // 64 or 128
	RootBitReserved bool // if true, highest bit implies every permission
	// AdminLevel is the role level at which ownership and team gates
	// are bypassed.
	AdminLevel int
	// DefaultRolePermissions is the fallback table consulted when
	// neither overrides nor the role mask grant a permission.
	DefaultRolePermissions map[string][]string
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig governs account lockout after repeated login-tier
// limiter hits.
type LockoutConfig struct {
	Enabled   bool
	Threshold int
	Window    time.Duration
	Duration  time.Duration
}

// AuditConfig tunes the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// RingRetain is how many entries the queryable in-memory log
	// keeps.
	RingRetain int
}

// MetricsConfig enables the counter table.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the stock configuration. Callers adjust fields
// and hand the result to Builder.WithConfig.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TTL:           30 * 24 * time.Hour,
			SigningMethod: "ed25519",
		},
		Session: SessionConfig{
			Timeout:               30 * time.Minute,
			RememberTimeout:       30 * 24 * time.Hour,
			FreshAuthWindow:       5 * time.Minute,
			InvalidationRetention: 24 * time.Hour,
			RedisPrefix:           "gg:sess",
		},
		RateLimit: RateLimitConfig{
			Login:       TierLimit{Max: 5, Window: 5 * time.Minute},
			API:         TierLimit{Max: 100, Window: 1 * time.Minute},
			Sensitive:   TierLimit{Max: 3, Window: 1 * time.Minute},
			RedisPrefix: "gg:rl",
		},
		Verification: VerificationConfig{
			BaseScore:   70,
			DenyBelow:   30,
			ReauthBelow: 50,
			Deltas: ScoreDeltas{
				ReadAction:        5,
				WriteAction:       0,
				SensitiveAction:   -10,
				DestructiveAction: -20,
				OffHours:          -10,
				KnownDevice:       10,
				NewDevice:         -15,
				KnownIP:           5,
				NewIP:             -10,
				MFAPassed:         15,
			},
			OffHoursStart: 22,
			OffHoursEnd:   6,
			MaxSessionAge: 12 * time.Hour,
			HistoryLimit:  256,
		},
		Permission: PermissionConfig{
			MaxBits:         64,
			RootBitReserved: true,
			AdminLevel:      80,
		},
		Lockout: LockoutConfig{
			Enabled:   true,
			Threshold: 3,
			Window:    30 * time.Minute,
			Duration:  15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
			RingRetain: 4096,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	if len(cfg.JWT.VerifyKeys) > 0 {
		out.JWT.VerifyKeys = make(map[string][]byte, len(cfg.JWT.VerifyKeys))
		for kid, key := range cfg.JWT.VerifyKeys {
			out.JWT.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	if len(cfg.Permission.DefaultRolePermissions) > 0 {
		out.Permission.DefaultRolePermissions = make(map[string][]string, len(cfg.Permission.DefaultRolePermissions))
		for role, perms := range cfg.Permission.DefaultRolePermissions {
			out.Permission.DefaultRolePermissions[role] = append([]string(nil), perms...)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the engine cannot run safely with.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	if c.JWT.SigningMethod != "ed25519" && c.JWT.SigningMethod != "hs256" {
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PrivateKey) == 0 {
		return errors.New("ed25519 requires PrivateKey")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PublicKey) == 0 && len(c.JWT.VerifyKeys) == 0 {
		return errors.New("ed25519 requires PublicKey or VerifyKeys")
	}
	if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}

	// Session
	if c.Session.Timeout <= 0 {
		return errors.New("Session Timeout must be > 0")
	}
	if c.Session.RememberTimeout < c.Session.Timeout {
		return errors.New("Session RememberTimeout must be >= Timeout")
	}
	if c.Session.FreshAuthWindow <= 0 {
		return errors.New("Session FreshAuthWindow must be > 0")
	}

	// Rate limit tiers
	for _, tier := range []struct {
		name string
		t    TierLimit
	}{
		{"Login", c.RateLimit.Login},
		{"API", c.RateLimit.API},
		{"Sensitive", c.RateLimit.Sensitive},
	} {
		if tier.t.Max <= 0 {
			return errors.New("RateLimit " + tier.name + " Max must be > 0")
		}
		if tier.t.Window <= 0 {
			return errors.New("RateLimit " + tier.name + " Window must be > 0")
		}
	}

	// Verification thresholds
	if c.Verification.BaseScore < 0 || c.Verification.BaseScore > 100 {
		return errors.New("Verification BaseScore must be in [0,100]")
	}
	if c.Verification.DenyBelow < 0 || c.Verification.DenyBelow > 100 {
		return errors.New("Verification DenyBelow must be in [0,100]")
	}
	if c.Verification.ReauthBelow < c.Verification.DenyBelow {
		return errors.New("Verification ReauthBelow must be >= DenyBelow")
	}
	if c.Verification.OffHoursStart < 0 || c.Verification.OffHoursStart > 23 ||
		c.Verification.OffHoursEnd < 0 || c.Verification.OffHoursEnd > 23 {
		return errors.New("Verification off-hours bounds must be in [0,23]")
	}

	// Permission
	if c.Permission.MaxBits != 64 && c.Permission.MaxBits != 128 {
		return errors.New("Permission MaxBits must be 64 or 128")
	}

	// Lockout
	if c.Lockout.Enabled {
		if c.Lockout.Threshold <= 0 {
			return errors.New("Lockout Threshold must be > 0")
		}
		if c.Lockout.Window <= 0 || c.Lockout.Duration <= 0 {
			return errors.New("Lockout Window and Duration must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
