// Package requestcontext carries request-scoped values (caller, request id,
// request time) from middleware to services without importing net/http.
package requestcontext

import (
	"context"
	"time"

	"petidentity/pkg/domain"
)

type (
	principalKey struct{}
	requestIDKey struct{}
	nowKey       struct{}
)

// Principal is the authenticated caller: a user id and its role.
type Principal struct {
	UserID int64
	Role   domain.Role
}

func (p Principal) Is(role domain.Role) bool {
	return p.Role == role
}

// IsAny reports whether the principal holds one of roles.
func (p Principal) IsAny(roles ...domain.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// UserID returns the caller's id, or 0 when unauthenticated.
func UserID(ctx context.Context) int64 {
	p, _ := PrincipalFrom(ctx)
	return p.UserID
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the time pinned by WithTime, falling back to the wall clock in
// contexts that did not pass through the request middleware.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, t)
}
