package scoringapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/riskshield/fraudguard/internal/httpserver"
)

// RequireAPIKey checks the X-API-KEY header against the configured
// pre-shared key. Adapted from APIKeyAuthenticator, which hashed and looked
// a key up per-tenant in the database; here there is exactly one pre-shared
// secret, so the check collapses to a constant-time comparison with no
// store lookup.
func RequireAPIKey(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-KEY")
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
