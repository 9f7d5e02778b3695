package shared

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the caller as resolved by the identity provider
type Identity struct {
	UserID uuid.UUID
	Role   string
	// SelfOnly restricts the caller to records they own as sales or account owner
	SelfOnly bool
}

// IsZero reports whether no identity was resolved
func (i Identity) IsZero() bool {
	return i.UserID == uuid.Nil
}

// Scope returns the owner id to filter by, or nil when the caller sees everything
func (i Identity) Scope() *uuid.UUID {
	if !i.SelfOnly {
		return nil
	}
	id := i.UserID
	return &id
}

type identityKey struct{}

// WithIdentity stores the caller identity on the context
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller identity, if any
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
