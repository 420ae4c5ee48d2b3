// Package session issues and recovers the opaque per-visitor id the
// rest of the server keys everything on. The core never generates or
// parses these ids; it only carries them around.
package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const cookieName = "arena_session"

type ctxKey struct{}

// Middleware ensures every request carries a session id, minting one in
// a cookie on first contact, and stores it on the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var userID string
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			userID = c.Value
		} else {
			userID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    userID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

// UserID returns the session id stored by Middleware, or "" when the
// request never went through it.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
