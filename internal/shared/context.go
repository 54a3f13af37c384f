package shared

import (
	"context"

	"github.com/modular-admin/modular-admin/internal/rbac"
)

// Actor names the caller for audit records.
func Actor(ctx context.Context) string {
	if id := rbac.IdentityFromContext(ctx); id != nil {
		return id.Username
	}
	return "anonymous"
}

// IsSystem reports whether the caller is a system identity.
func IsSystem(ctx context.Context) bool {
	id := rbac.IdentityFromContext(ctx)
	return id != nil && id.IsSystem
}
