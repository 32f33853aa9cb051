package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/subtrack/internal/auth"
	"github.com/MrJamesThe3rd/subtrack/internal/http/respond"
)

type claimsKey struct{}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// Middleware rejects requests without a valid bearer token with 401.
func Middleware(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "JWT Token not found")
				return
			}

			claims, err := svc.Verify(token)
			if err != nil {
				slog.DebugContext(r.Context(), "rejected access token", "error", err)

				if errors.Is(err, jwt.ErrTokenExpired) {
					respond.Error(w, http.StatusUnauthorized, "Expired JWT Token")
					return
				}

				respond.Error(w, http.StatusUnauthorized, "Invalid JWT Token")

				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
