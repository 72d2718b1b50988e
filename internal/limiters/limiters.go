// Package limiters pre-wires the three request tiers over the sliding
// window core: login attempts, general API traffic, and sensitive
// operations. Each tier keeps its own key space so bursts in one never
// consume another's budget.
package limiters

import (
	"context"
	"time"

	"github.com/kharven/goGuard/internal/rate"
)

// Tier identifies one of the pre-wired limiter tiers.
type Tier uint8

const (
	TierLogin Tier = iota
	TierAPI
	TierSensitive
)

func (t Tier) String() string {
	switch t {
	case TierLogin:
		return "login"
	case TierAPI:
		return "api"
	case TierSensitive:
		return "sensitive"
	default:
		return "unknown"
	}
}

// TierConfig sizes one tier's window.
type TierConfig struct {
	Max    int
	Window time.Duration
}

// Config holds all three tiers.
type Config struct {
	Login     TierConfig
	API       TierConfig
	Sensitive TierConfig
}

// Set bundles the three tier limiters over a shared store.
type Set struct {
	login     *rate.Limiter
	api       *rate.Limiter
	sensitive *rate.Limiter
}

// NewSet builds the tier limiters on top of one store.
func NewSet(store rate.Store, cfg Config) *Set {
	return &Set{
		login:     rate.NewLimiter(store, cfg.Login.Max, cfg.Login.Window),
		api:       rate.NewLimiter(store, cfg.API.Max, cfg.API.Window),
		sensitive: rate.NewLimiter(store, cfg.Sensitive.Max, cfg.Sensitive.Window),
	}
}

// Allow checks the identifier against the tier's window.
func (s *Set) Allow(ctx context.Context, tier Tier, identifier string) (rate.Decision, error) {
	return s.limiter(tier).Allow(ctx, tier.String()+":"+identifier)
}

// Reset clears the identifier's window in the tier.
func (s *Set) Reset(ctx context.Context, tier Tier, identifier string) error {
	return s.limiter(tier).Reset(ctx, tier.String()+":"+identifier)
}

// Sweep drops stale keys across all tiers.
func (s *Set) Sweep(ctx context.Context) (int, error) {
	total := 0
	for _, l := range []*rate.Limiter{s.login, s.api, s.sensitive} {
		n, err := l.Sweep(ctx, l.Window())
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Window exposes the tier's configured window.
func (s *Set) Window(tier Tier) time.Duration { return s.limiter(tier).Window() }

// Max exposes the tier's configured budget.
func (s *Set) Max(tier Tier) int { return s.limiter(tier).Max() }

func (s *Set) limiter(tier Tier) *rate.Limiter {
	switch tier {
	case TierLogin:
		return s.login
	case TierSensitive:
		return s.sensitive
	default:
		return s.api
	}
}
