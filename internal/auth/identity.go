package auth

import "context"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the verified caller attached to a request.
type Identity struct {
	UserID int64  `json:"id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// IsAdmin reports whether the identity holds the privileged role.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity attached by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
