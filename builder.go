package goGuard

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kharven/goGuard/internal/audit"
	"github.com/kharven/goGuard/internal/limiters"
	"github.com/kharven/goGuard/internal/metrics"
	"github.com/kharven/goGuard/internal/privilege"
	"github.com/kharven/goGuard/internal/rate"
	"github.com/kharven/goGuard/internal/resolver"
	"github.com/kharven/goGuard/internal/verify"
	"github.com/kharven/goGuard/jwt"
	"github.com/kharven/goGuard/permission"
	"github.com/kharven/goGuard/session"
)

// Builder assembles an Engine. Memory-backed stores are the default;
// supplying a Redis client moves the session registry and rate-limit
// windows there for multi-instance deployments.
type Builder struct {
	config Config
	redis  *redis.Client

	permissions []string
	roles       []RoleSpec

	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New starts a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the session registry and rate limiter with Redis.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithPermissions declares the permission vocabulary. Bit positions
// are assigned in order and frozen at Build.
func (b *Builder) WithPermissions(perms []string) *Builder {
	b.permissions = perms
	return b
}

// WithRoles declares the initial roles. Roles referencing unknown
// permissions fail Build.
func (b *Builder) WithRoles(roles []RoleSpec) *Builder {
	b.roles = roles
	return b
}

// WithDefaultRolePermissions installs the fallback permission table
// consulted when neither overrides nor role masks match.
func (b *Builder) WithDefaultRolePermissions(table map[string][]string) *Builder {
	b.config.Permission.DefaultRolePermissions = table
	return b
}

// WithAuditSink forwards audit events to an external sink in addition
// to the built-in queryable log.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the counter table.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles authorize latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock injects the time source, primarily for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(b.permissions) == 0 {
		return nil, errors.New("permissions must be provided")
	}
	if len(b.roles) == 0 {
		return nil, errors.New("roles must be provided")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- PERMISSION REGISTRY --------
	registry, err := permission.NewRegistry(
		cfg.Permission.MaxBits,
		cfg.Permission.RootBitReserved,
	)
	if err != nil {
		return nil, err
	}

	for _, p := range b.permissions {
		if _, err := registry.Register(p); err != nil {
			return nil, err
		}
	}

	registry.Freeze()

	// -------- ROLES --------
	roleSet := permission.NewRoleSet(registry)

	for _, spec := range b.roles {
		if err := roleSet.Register(spec.Name, spec.Level, spec.Permissions); err != nil {
			return nil, err
		}
	}

	// -------- RESOLVER + PRIVILEGES --------
	res := resolver.New(registry, roleSet, resolver.Config{
		AdminLevel:             cfg.Permission.AdminLevel,
		DefaultRolePermissions: cfg.Permission.DefaultRolePermissions,
		Now:                    now,
	})
	privileges := privilege.NewManager(registry, roleSet, now)

	// -------- SESSION STORE --------
	var sessionRegistry session.Registry
	if b.redis != nil {
		sessionRegistry = session.NewRedisRegistry(b.redis, session.RedisConfig{
			Prefix:                cfg.Session.RedisPrefix,
			InvalidationRetention: cfg.Session.InvalidationRetention,
		})
	} else {
		sessionRegistry = session.NewMemoryRegistry(session.MemoryConfig{
			InvalidationRetention: cfg.Session.InvalidationRetention,
			Now:                   now,
		})
	}
	sessions := session.NewStore(sessionRegistry, session.Config{
		Timeout:               cfg.Session.Timeout,
		RememberTimeout:       cfg.Session.RememberTimeout,
		FreshAuthWindow:       cfg.Session.FreshAuthWindow,
		InvalidationRetention: cfg.Session.InvalidationRetention,
		Now:                   now,
	})

	// -------- RATE LIMITERS --------
	var rateStore rate.Store
	if b.redis != nil {
		rateStore = rate.NewRedisStore(b.redis, rate.RedisConfig{
			Prefix: cfg.RateLimit.RedisPrefix,
			Now:    now,
		})
	} else {
		rateStore = rate.NewMemoryStore(rate.MemoryConfig{Now: now})
	}
	limiterSet := limiters.NewSet(rateStore, limiters.Config{
		Login:     limiters.TierConfig{Max: cfg.RateLimit.Login.Max, Window: cfg.RateLimit.Login.Window},
		API:       limiters.TierConfig{Max: cfg.RateLimit.API.Max, Window: cfg.RateLimit.API.Window},
		Sensitive: limiters.TierConfig{Max: cfg.RateLimit.Sensitive.Max, Window: cfg.RateLimit.Sensitive.Window},
	})

	// -------- VERIFICATION --------
	verifier := verify.New(verify.Config{
		BaseScore:   cfg.Verification.BaseScore,
		DenyBelow:   cfg.Verification.DenyBelow,
		ReauthBelow: cfg.Verification.ReauthBelow,
		Deltas: verify.Deltas{
			ReadAction:        cfg.Verification.Deltas.ReadAction,
			WriteAction:       cfg.Verification.Deltas.WriteAction,
			SensitiveAction:   cfg.Verification.Deltas.SensitiveAction,
			DestructiveAction: cfg.Verification.Deltas.DestructiveAction,
			OffHours:          cfg.Verification.Deltas.OffHours,
			KnownDevice:       cfg.Verification.Deltas.KnownDevice,
			NewDevice:         cfg.Verification.Deltas.NewDevice,
			KnownIP:           cfg.Verification.Deltas.KnownIP,
			NewIP:             cfg.Verification.Deltas.NewIP,
			MFAPassed:         cfg.Verification.Deltas.MFAPassed,
		},
		OffHoursStart: cfg.Verification.OffHoursStart,
		OffHoursEnd:   cfg.Verification.OffHoursEnd,
		MaxSessionAge: cfg.Verification.MaxSessionAge,
		HistoryLimit:  cfg.Verification.HistoryLimit,
		Now:           now,
	})

	// -------- JWT --------
	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.TTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
		VerifyKeys:    cfg.JWT.VerifyKeys,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	// -------- AUDIT + METRICS --------
	ring := audit.NewRing(cfg.Audit.RingRetain)

	engine := &Engine{
		config:     cfg,
		registry:   registry,
		roles:      roleSet,
		resolver:   res,
		privileges: privileges,
		sessions:   sessions,
		jwtManager: jm,
		limiters:   limiterSet,
		verifier:   verifier,
		auditLog:   ring,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: metrics.New(metrics.Config{
			Enabled:       cfg.Metrics.Enabled,
			EnableLatency: cfg.Metrics.EnableLatencyHistograms,
		}),
		lockouts:    newLockoutTracker(cfg.Lockout, now),
		redisBacked: b.redis != nil,
		now:         now,
	}

	b.built = true

	return engine, nil
}
