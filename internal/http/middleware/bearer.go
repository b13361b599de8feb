package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const bearerTokenKey contextKey = "bearerToken"

// BearerToken lifts "Authorization: Bearer <token>" into the request context.
// Requests without a header pass through anonymously. When secret is set, a
// presented token must carry a valid HMAC signature.
func BearerToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "malformed authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if tokenString == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if secret != "" {
				token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(secret), nil
				})
				if err != nil || !token.Valid {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
			}
			ctx := context.WithValue(r.Context(), bearerTokenKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerFromContext returns the bearer token if the request carried one.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerTokenKey).(string)
	return token, ok && token != ""
}
