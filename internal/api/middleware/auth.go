package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey struct{}

// UserIDHeader carries the caller identity when no JWT secret is configured.
const UserIDHeader = "X-User-ID"

// WithUserID returns a context carrying the caller identity.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the caller identity, or "" when unauthenticated.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Auth returns middleware that resolves the caller identity. With a secret,
// an HS256 bearer token is required and its subject is the user id; the
// access_token query parameter is accepted for WebSocket upgrades. Without a
// secret the X-User-ID header (or userId query parameter) is trusted.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if secret != "" {
				token := bearerToken(r)
				if token == "" {
					WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "A bearer token is required")
					return
				}
				sub, err := subjectFromToken(token, secret)
				if err != nil {
					WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Invalid or expired token")
					return
				}
				userID = sub
			} else {
				userID = strings.TrimSpace(r.Header.Get(UserIDHeader))
				if userID == "" {
					userID = r.URL.Query().Get("userId")
				}
				if userID == "" {
					WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "The X-User-ID header is required")
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func subjectFromToken(token, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
