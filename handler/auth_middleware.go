package handler

import (
	"context"
	"errors"
	"go-music-api/metrics"
	"go-music-api/model"
	"go-music-api/service"
	"net/http"
	"strings"
)

type contextKey string

const UserKey contextKey = "user"

// UserFromContext returns the user stored by AuthMiddleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserKey).(*model.User)
	return user, ok
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	headerParts := strings.Fields(authHeader)
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
		return "", false
	}
	return headerParts[1], true
}

// AuthMiddleware resolves the bearer token to a user and stores it in the request context.
func AuthMiddleware(auth Authenticator, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				collector.RecordVerification(metrics.ResultRejected)
				unauthenticated().Send(w)
				return
			}

			user, err := auth.VerifyBearerToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					collector.RecordVerification(metrics.ResultRejected)
					unauthenticated().Send(w)
					return
				}
				collector.RecordVerification(metrics.ResultError)
				serviceError(err).Send(w)
				return
			}
			collector.RecordVerification(metrics.ResultSuccess)

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
