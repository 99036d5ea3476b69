package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/yourorg/domus-api/internal/auth"
)

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type claimsKey struct{}

// ClaimsFrom returns the session attached by RequireSession.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireSession rejects requests without a valid user or guest token.
func RequireSession(p TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearer(r)
			if tok == "" {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			claims, err := p.Parse(tok)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired session")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// RequireUser must run after RequireSession. Guests get 403 login_required.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClaimsFrom(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing session")
			return
		}
		if c.IsGuest() {
			writeError(w, r, http.StatusForbidden, "login_required", "please log in to continue")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// subject is the per-session namespace for compare lists and preferences.
func subject(r *http.Request) string {
	c, _ := ClaimsFrom(r.Context())
	return c.Subject
}

func userEmail(r *http.Request) string {
	c, _ := ClaimsFrom(r.Context())
	return c.Email
}
