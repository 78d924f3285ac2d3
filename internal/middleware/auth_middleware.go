package middleware

import (
	"context"
	"net/http"

	"quill-blog-server/pkg/cookies"
	"quill-blog-server/pkg/jwt"
	"quill-blog-server/pkg/response"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UsernameKey contextKey = "username"
)

// AuthMiddleware gates protected routes on the access-token cookie. It never
// attempts a silent refresh; expired callers must hit the refresh endpoint.
func AuthMiddleware(accessSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookies.AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				response.Forbidden(w, "You need to sign in before continuing.")
				return
			}

			claims, err := jwt.ValidateToken(cookie.Value, accessSecret)
			if err != nil {
				response.Forbidden(w, "Invalid Token")
				return
			}

			notePrincipal(r, claims.Username)

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

func GetUsername(r *http.Request) string {
	username, ok := r.Context().Value(UsernameKey).(string)
	if !ok {
		return ""
	}
	return username
}
