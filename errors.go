package goGuard

import "errors"

var (
	// ErrUnauthenticated indicates the request carried no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSessionInvalid indicates the session token failed validation.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrSessionExpired indicates the session exceeded its inactivity timeout.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionInvalidated indicates the token was force-invalidated and is permanently unusable.
	ErrSessionInvalidated = errors.New("session invalidated")
	// ErrSessionNotFound indicates the session is absent from the registry.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRateLimited indicates the caller exhausted its sliding-window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrPermissionDenied indicates the permission, ownership, or attribute check failed.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrReauthRequired indicates the caller must complete fresh authentication before retrying.
	ErrReauthRequired = errors.New("reauthentication required")
	// ErrAccountLocked indicates repeated failures locked the account for a cooldown period.
	ErrAccountLocked = errors.New("account locked")
	// ErrRoleUnknown indicates the role name was never registered with the role set.
	ErrRoleUnknown = errors.New("unknown role")
	// ErrGrantInvalid indicates a temporary grant failed creation-time validation.
	ErrGrantInvalid = errors.New("invalid privilege grant")
	// ErrGrantNotFound indicates the grant id does not exist or was already revoked.
	ErrGrantNotFound = errors.New("grant not found")
	// ErrOverrideInvalid indicates a permission override failed creation-time validation.
	ErrOverrideInvalid = errors.New("invalid permission override")
	// ErrTokenInvalid indicates the session token signature or claims were rejected.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrStoreUnavailable indicates the backing store (Redis) could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady indicates the engine was used before Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)
