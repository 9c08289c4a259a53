package utils

import "context"

type claimsKey struct{}

// WithClaims stashes the parsed token claims for downstream handlers.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// GetClaims returns the caller's claims, or nil for anonymous requests.
func GetClaims(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

// IsStaff reports whether the claims belong to a superuser or an "IT Staff"
// group member.
func (c *Claims) IsStaff() bool {
	if c == nil {
		return false
	}
	if c.IsSuperuser {
		return true
	}
	for _, g := range c.Groups {
		if g == "IT Staff" {
			return true
		}
	}
	return false
}
