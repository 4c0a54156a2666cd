package middleware

import (
	"context"
	"net/http"

	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/http/response"
	"github.com/trackivity/web-bff/internal/observability"
	"github.com/trackivity/web-bff/internal/security"
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"
)

// Gate is the cookie-session authentication gate. It decodes what the
// session cookie claims and optimistically trusts it; authoritative
// revocation lives in the backend and is picked up by periodic
// revalidation, not here.
type Gate struct {
	codec *security.SessionCodec
}

func NewGate(codec *security.SessionCodec) *Gate {
	return &Gate{codec: codec}
}

func (g *Gate) resolve(r *http.Request) *domain.SessionUser {
	raw := security.GetCookie(r, security.SessionCookieName)
	if raw == "" {
		return nil
	}
	claims, err := g.codec.Decode(raw)
	if err != nil {
		return nil
	}
	user := claims.User
	return &user
}

// OptionalIdentity resolves the identity into the request context when a
// valid session cookie is present. It never rejects and never redirects.
func (g *Gate) OptionalIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := g.resolve(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), IdentityContextKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentity rejects with a 401 envelope when no valid session cookie
// is present. A missing session is always UNAUTHORIZED, never FORBIDDEN.
func (g *Gate) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := g.resolve(r)
		if user == nil {
			observability.RecordGateDecision(r.Context(), "identity", "unauthenticated")
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		observability.RecordGateDecision(r.Context(), "identity", "allowed")
		ctx := context.WithValue(r.Context(), IdentityContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func IdentityFromContext(ctx context.Context) (*domain.SessionUser, bool) {
	u, ok := ctx.Value(IdentityContextKey).(*domain.SessionUser)
	return u, ok
}

func contextWithIdentity(ctx context.Context, user *domain.SessionUser) context.Context {
	return context.WithValue(ctx, IdentityContextKey, user)
}
