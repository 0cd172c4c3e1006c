package internal

import (
	"context"
	"time"

	"github.com/frahmantamala/pisda/internal/core/role"
)

type ctxKey string

const ContextIdentityKey ctxKey = "identity"

// Identity is the caller resolved for a request. Guests have UserID 0.
type Identity struct {
	UserID        int64
	Username      string
	Role          role.Role
	Status        string
	EffectiveRole role.Role
	BannedAt      *time.Time
}

func GuestIdentity() *Identity {
	return &Identity{Role: role.Guest, EffectiveRole: role.Guest}
}

func (i *Identity) IsGuest() bool {
	return i == nil || i.UserID == 0
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.EffectiveRole == role.Admin
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(ContextIdentityKey).(*Identity)
	return id, ok && id != nil
}

// CallerFromContext returns the identity or a guest when none was attached.
func CallerFromContext(ctx context.Context) *Identity {
	if id, ok := IdentityFromContext(ctx); ok {
		return id
	}
	return GuestIdentity()
}

func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, id)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
