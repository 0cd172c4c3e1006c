package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/transport"
	"github.com/frahmantamala/pisda/internal/user"
	"github.com/frahmantamala/pisda/pkg/logger"
)

// ToolGate decides whether a role may use an installed tool.
type ToolGate interface {
	CheckAccess(ctx context.Context, tool string, r role.Role) error
}

// Authorization builds the route guards. Every guard expects Authenticate to
// have run first and treats a missing identity as a guest.
type Authorization struct {
	*transport.BaseHandler
	tools ToolGate
}

func NewAuthorization(tools ToolGate, base *transport.BaseHandler) *Authorization {
	if base == nil {
		base = transport.NewBaseHandler(nil)
	}
	return &Authorization{BaseHandler: base, tools: tools}
}

// RequireTool rejects callers whose effective role may not use the tool.
func (a *Authorization) RequireTool(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := internal.CallerFromContext(r.Context())
			if err := a.tools.CheckAccess(r.Context(), name, caller.EffectiveRole); err != nil {
				logger.From(r.Context()).Warn("tool access denied",
					"tool", name,
					"role", caller.EffectiveRole.String(),
					"error", err)
				a.HandleServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMinRole rejects callers below min in the role hierarchy.
func (a *Authorization) RequireMinRole(min role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := internal.CallerFromContext(r.Context())
			if !caller.EffectiveRole.AtLeast(min) {
				a.HandleServiceError(w, r, internal.ErrInsufficientRole.WithDetails(map[string]interface{}{
					"required": min.String(),
					"current":  caller.EffectiveRole.String(),
				}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOrAdmin lets through administrators and the account named by
// the numeric URL parameter.
func (a *Authorization) RequireOwnerOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := internal.CallerFromContext(r.Context())
			if caller.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}

			id, err := a.Int64Param(r, param)
			if err != nil {
				a.HandleServiceError(w, r, err)
				return
			}
			if caller.IsGuest() || caller.UserID != id {
				a.HandleServiceError(w, r, internal.ErrNotOwner)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActive rejects banned accounts with the time of the ban.
func (a *Authorization) RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := internal.CallerFromContext(r.Context())
		if caller.Status == string(user.StatusBanned) {
			details := map[string]interface{}{"status": caller.Status}
			if caller.BannedAt != nil {
				details["bannedAt"] = caller.BannedAt
			}
			a.HandleServiceError(w, r, internal.ErrUserBanned.WithDetails(details))
			return
		}
		next.ServeHTTP(w, r)
	})
}
