// Package middlewares holds the HTTP middleware chain pieces specific to the
// fulfillment transport: actor authentication and context plumbing.
package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
)

type ctxKey string

const actorKey ctxKey = "actor"

// actorClaims is the token shape the identity collaborator issues: the
// subject is the user id and a single role claim names the actor's role.
// This core verifies the HMAC signature and trusts the claims as-is — it
// never re-validates credentials.
type actorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator parses the Bearer token into a domain.Actor and stores it in
// the request context. Requests without a valid token are rejected with the
// Unauthenticated error shape before reaching any handler.
func Authenticator(hmacKey []byte, reject func(w http.ResponseWriter, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				reject(w, "thiếu mã xác thực")
				return
			}

			var claims actorClaims
			token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return hmacKey, nil
			})
			if err != nil || !token.Valid {
				reject(w, "mã xác thực không hợp lệ")
				return
			}

			role, err := domain.ParseRole(claims.Role)
			if err != nil || claims.Subject == "" {
				reject(w, "mã xác thực không hợp lệ")
				return
			}

			actor := domain.Actor{UserID: claims.Subject, Role: role}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the authenticated actor. The second return is
// false when no authenticator ran for the request.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}
