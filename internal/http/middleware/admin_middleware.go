package middleware

import (
	"net/http"

	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/http/response"
	"github.com/trackivity/web-bff/internal/observability"
)

// OrgScopeFunc extracts the organization a request targets. Returning false
// means the route is not organization-scoped.
type OrgScopeFunc func(r *http.Request) (uint, bool)

// RequireAdmin gates a route on an admin role of at least minLevel. When
// orgScope resolves a target organization, scoped admins acting outside
// their own organization are rejected; SuperAdmin is never scoped.
func (g *Gate) RequireAdmin(minLevel domain.AdminLevel, orgScope OrgScopeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := g.resolve(r)
			if user == nil {
				observability.RecordGateDecision(r.Context(), "admin", "unauthenticated")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			if !user.IsAdmin() {
				observability.RecordGateDecision(r.Context(), "admin", "not_admin")
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "admin role required", nil)
				return
			}
			if minLevel != "" && !user.HasAdminLevel(minLevel) {
				observability.RecordGateDecision(r.Context(), "admin", "level_too_low")
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient admin level", map[string]string{"required": string(minLevel)})
				return
			}
			if orgScope != nil {
				if orgID, ok := orgScope(r); ok && !user.CanAccessOrganization(orgID) {
					observability.RecordGateDecision(r.Context(), "admin", "out_of_scope")
					response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "organization out of scope", nil)
					return
				}
			}
			observability.RecordGateDecision(r.Context(), "admin", "allowed")
			ctx := r.Context()
			next.ServeHTTP(w, r.WithContext(contextWithIdentity(ctx, user)))
		})
	}
}

// RequirePermission gates a route on a flattened permission string from the
// identity's admin role.
func (g *Gate) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := g.resolve(r)
			if user == nil {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			if !user.IsAdmin() || !user.Admin.HasPermission(permission) {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient permission", map[string]string{"required": permission})
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithIdentity(r.Context(), user)))
		})
	}
}
