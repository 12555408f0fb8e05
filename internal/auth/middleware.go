// Package auth guards the administrative HTTP surface with a static bearer
// token.
package auth

import (
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/metrics"
)

// AdminToken returns middleware that requires "Authorization: Bearer <token>".
// An empty token disables the check. lockout may be nil.
func AdminToken(token string, lockout *Lockout, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte(token)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			client := clientKey(r)

			if err := lockout.Check(ctx, client); err != nil {
				if errors.Is(err, ErrLockedOut) {
					writeError(w, http.StatusTooManyRequests, err.Error())
					return
				}
				// Fail open on Redis errors.
				log.Warn().Err(err).Msg("auth lockout check failed")
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, r, lockout, client, log, "authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				reject(w, r, lockout, client, log, "invalid authorization format, expected Bearer <token>")
				return
			}

			if subtle.ConstantTimeCompare([]byte(parts[1]), want) != 1 {
				reject(w, r, lockout, client, log, "invalid token")
				return
			}

			if err := lockout.Clear(ctx, client); err != nil {
				log.Warn().Err(err).Msg("failed to clear auth failures")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, lockout *Lockout, client string, log zerolog.Logger, msg string) {
	metrics.APIAuthFailuresTotal.Inc()
	if err := lockout.RecordFailure(r.Context(), client); err != nil {
		log.Warn().Err(err).Msg("failed to record auth failure")
	}
	log.Warn().
		Str("client", client).
		Str("path", r.URL.Path).
		Str("reason", msg).
		Msg("admin request rejected")
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// clientKey identifies the caller by address. RealIP middleware, when
// mounted in front, has already rewritten RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
