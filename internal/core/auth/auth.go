// Package auth guards the scheduled-job trigger endpoints with a shared
// bearer secret. The secret comes from the environment only; when it is
// unset the endpoints run open, which keeps local development friction-free.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// TriggerGuard wraps job-trigger handlers with method and bearer checks.
type TriggerGuard struct {
	secret string
	log    *slog.Logger
}

// NewTriggerGuard creates a guard. An empty secret disables the bearer check.
func NewTriggerGuard(secret string, log *slog.Logger) *TriggerGuard {
	return &TriggerGuard{secret: secret, log: log}
}

// Wrap enforces POST-only access and, when a secret is configured, a
// matching Authorization bearer token. Comparison is constant-time.
func (g *TriggerGuard) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if g.secret != "" {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(g.secret)) != 1 {
				g.log.Warn("rejected job trigger with bad credentials",
					"path", r.URL.Path, "remote", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}
