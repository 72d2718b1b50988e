package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	goGuard "github.com/kharven/goGuard"
)

type decisionContextKey struct{}
type sessionContextKey struct{}

// DecisionFromContext returns the authorization decision stored by
// Guard for the current request.
func DecisionFromContext(ctx context.Context) (goGuard.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(goGuard.Decision)
	return d, ok
}

// SessionFromContext returns the validated session stored by
// RequireSession for the current request.
func SessionFromContext(ctx context.Context) (goGuard.SessionInfo, bool) {
	info, ok := ctx.Value(sessionContextKey{}).(goGuard.SessionInfo)
	return info, ok
}

// Guard authorizes each request for the given action and resource
// before invoking the next handler. The session token is taken from
// the Authorization header or the session cookie; the caller IP from
// RemoteAddr.
func Guard(engine *goGuard.Engine, action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, _ := requestToken(r)
			ip := remoteIP(r)

			ctx := goGuard.WithClientIP(r.Context(), ip)
			ctx = goGuard.WithUserAgent(ctx, r.UserAgent())

			decision, _ := engine.Authorize(ctx, goGuard.RequestContext{
				SessionToken: token,
				Action:       action,
				Resource:     resource,
				IP:           ip,
			})

			if !decision.Allowed() {
				writeDecision(w, decision)
				return
			}

			ctx = context.WithValue(ctx, decisionContextKey{}, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession validates the session without running the full
// authorization pipeline, for routes that only need identity.
func RequireSession(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := requestToken(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := goGuard.WithClientIP(r.Context(), remoteIP(r))
			info, err := engine.ValidateToken(ctx, token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, sessionContextKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionCookieName is the cookie consulted when no bearer token is
// present.
const SessionCookieName = "gg_session"

func requestToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeDecision(w http.ResponseWriter, d goGuard.Decision) {
	if d.RetryAfter > 0 {
		secs := int(d.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	if d.Code == goGuard.DecisionRequireReauth && d.RedirectHint != "" {
		w.Header().Set("Location", d.RedirectHint)
	}

	status := d.HTTPStatus
	if status == 0 {
		status = http.StatusForbidden
	}
	http.Error(w, d.Reason, status)
}
