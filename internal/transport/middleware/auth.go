package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/transport"
	"github.com/frahmantamala/pisda/pkg/logger"
)

// IdentityResolver turns a bearer token into the caller's current identity.
type IdentityResolver interface {
	Identify(ctx context.Context, token string) (*internal.Identity, error)
}

// Authenticate attaches the caller identity to every request. A request
// without a token continues as a guest; a token that does not validate is
// rejected.
func Authenticate(resolver IdentityResolver, base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := transport.BearerToken(r)
			if token == "" {
				ctx := internal.ContextWithIdentity(r.Context(), internal.GuestIdentity())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			id, err := resolver.Identify(r.Context(), token)
			if err != nil {
				base.HandleServiceError(w, r, err)
				return
			}

			ctx := internal.ContextWithIdentity(r.Context(), id)
			ctx = logger.With(ctx, "userID", id.UserID, "role", id.EffectiveRole.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
