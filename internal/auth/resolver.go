package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/users"
)

// Resolver verifies bearer tokens and yields the caller identity. It
// implements rbac.IdentityResolver.
type Resolver struct {
	tokens   *JWTManager
	denylist Denylist
	users    UserFinder
}

// NewResolver constructs a Resolver. The identity is read from the stored
// account on every request, so role changes and deletions apply immediately.
func NewResolver(tokens *JWTManager, denylist Denylist, users UserFinder) *Resolver {
	return &Resolver{tokens: tokens, denylist: denylist, users: users}
}

// Resolve returns (nil, nil) when the request carries no credentials. Token
// and account problems return ErrInvalidToken or ErrTokenRevoked; store
// failures are wrapped in rbac.ErrInfrastructure.
func (r *Resolver) Resolve(req *http.Request) (*rbac.Identity, error) {
	raw, ok := BearerToken(req)
	if !ok {
		return nil, nil
	}
	claims, err := r.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	ctx := req.Context()
	revoked, err := r.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rbac.ErrInfrastructure, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	user, err := r.users.FindUser(ctx, claims.Customer, claims.Username)
	switch {
	case errors.Is(err, users.ErrNotFound):
		return nil, fmt.Errorf("%w: account %s/%s no longer exists", ErrInvalidToken, claims.Customer, claims.Username)
	case err != nil:
		return nil, fmt.Errorf("%w: load account: %w", rbac.ErrInfrastructure, err)
	}
	return &rbac.Identity{
		Username: user.Username,
		Customer: user.Customer,
		Role:     user.Role,
		IsSystem: user.IsSystem,
	}, nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(req *http.Request) (string, bool) {
	header := strings.TrimSpace(req.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

var _ rbac.IdentityResolver = (*Resolver)(nil)
