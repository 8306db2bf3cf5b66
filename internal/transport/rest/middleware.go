package rest

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/baechuer/club-service/internal/pkg/logger"
	"github.com/baechuer/club-service/internal/security"
)

func AuthMiddleware(verifier security.AccessTokenVerifier) func(next http.Handler) http.Handler {
	if verifier == nil {
		panic("AuthMiddleware: nil verifier")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := strings.TrimSpace(r.Header.Get("Authorization"))
			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "missing bearer token", nil)
				return
			}

			claims, err := verifier.VerifyAccessToken(strings.TrimSpace(parts[1]))
			if err != nil {
				// expired and invalid tokens both answer 401
				fail(w, r, http.StatusUnauthorized, "auth.unauthorized", err.Error(), nil)
				return
			}

			ctx := withAuth(r.Context(), AuthContext{
				MemberID: claims.MemberID,
				Role:     strings.TrimSpace(claims.Role),
				Ver:      claims.Ver,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOrganizer lets through admins and organizers only. It must run after
// AuthMiddleware.
func RequireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, ok := GetAuth(r.Context())
		if !ok {
			fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
			return
		}
		if !(security.TokenClaims{Role: auth.Role}).CanOrganize() {
			fail(w, r, http.StatusForbidden, "auth.forbidden", "organizer role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Limiter is a shared request counter, e.g. the redis cache.
type Limiter interface {
	AllowRequest(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func RateLimitMiddleware(l Limiter, limit int, window time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := l.AllowRequest(r.Context(), clientIP(r), limit, window)
			if err != nil {
				logger.WithCtx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable")
			}
			if !allowed {
				fail(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// JSON-only API
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-site")

		next.ServeHTTP(w, r)
	})
}
