package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/auth"
)

// BearerIdentity is Identity for deployments where the API verifies the
// identity provider's token itself. The token's subject becomes the user id
// and X-User-ID is ignored. Requests without an Authorization header are
// anonymous; a bad token is a 401.
func BearerIdentity(tokens *auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			userID, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil || !validUserID.MatchString(userID) {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}
