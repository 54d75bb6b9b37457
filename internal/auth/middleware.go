package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskshield/fraudguard/internal/apperr"
	"github.com/riskshield/fraudguard/internal/httpserver"
)

type contextKey string

const claimsContextKey contextKey = "auth.claims"

// FromContext retrieves the claims RequireBearer validated and stored.
func FromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey).(*Claims)
	return claims
}

// RequireBearer validates the Authorization: Bearer header against the
// token subsystem before letting the request reach next. Any ambiguity in
// validation rejects the request, per the fail-closed auth policy
// governing bearer-protected endpoints.
func RequireBearer(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "missing bearer token")
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")

			claims, err := tokens.Validate(r.Context(), token)
			if err != nil {
				kind := apperr.KindOf(err)
				httpserver.RespondError(w, apperr.StatusCode(kind), string(kind), "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
