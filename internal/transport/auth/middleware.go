package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
)

type ctxKey string

const OperatorIDKey ctxKey = "operatorID"

// TokenMiddleware authenticates requests by personal access token, from
// the Authorization header or (for websocket connections) the token query
// parameter, and injects the operator id into the request context.
func TokenMiddleware(tokenRepo *repository.PersonalAccessTokenRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var plainToken string

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				plainToken = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			}
			if plainToken == "" {
				plainToken = r.URL.Query().Get("token")
			}

			if plainToken == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			pat, err := tokenRepo.FindTokenByPlainToken(r.Context(), plainToken)
			if err != nil {
				log.Printf("[AUTH] token lookup failed for %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if pat.ExpiresAt != nil && pat.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), OperatorIDKey, pat.OperatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetOperatorID(ctx context.Context) (int64, error) {
	operatorID, ok := ctx.Value(OperatorIDKey).(int64)
	if !ok {
		return 0, errors.New("operatorID not found in context")
	}
	return operatorID, nil
}

// WithOperatorID is used by tests and internal callers to seed the context.
func WithOperatorID(ctx context.Context, operatorID int64) context.Context {
	return context.WithValue(ctx, OperatorIDKey, operatorID)
}
