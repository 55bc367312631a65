package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/service"
	"github.com/google/uuid"
)

type contextKey string

const (
	CallerKey contextKey = "caller"

	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// ErrorWriter renders an error response. Handlers and middleware share one so
// every failure uses the same envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// TokenFromRequest reads the access token from the cookie, falling back to a
// Bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth rejects requests without a valid access token and stores the caller in
// the request context.
func Auth(authService *service.AuthService, logger *log.Logger, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := authService.ResolveCaller(r.Context(), TokenFromRequest(r))
			if err != nil {
				logger.Debug("rejected request token", "path", r.URL.Path, "err", err)
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// OptionalAuth resolves the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(authService *service.AuthService, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			caller, err := authService.ResolveCaller(r.Context(), token)
			if err != nil {
				logger.Debug("ignoring invalid optional token", "path", r.URL.Path, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func WithCaller(ctx context.Context, caller *domain.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

func GetCaller(ctx context.Context) (*domain.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(*domain.Caller)
	return caller, ok && caller != nil && caller.User != nil
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	caller, ok := GetCaller(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return caller.User.ID, true
}
