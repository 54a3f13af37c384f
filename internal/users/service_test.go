package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/modular-admin/modular-admin/internal/platform/docstore"
	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/roles"
)

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	store := docstore.NewMemory()
	roleRepo := roles.NewRepository(store)
	require.NoError(t, roleRepo.CreateRole(context.Background(), rbac.Role{Customer: "acme", Name: "viewer"}))
	require.NoError(t, roleRepo.CreateRole(context.Background(), rbac.Role{Customer: "acme", Name: "editor"}))
	repo := NewRepository(store)
	return NewService(repo, roleRepo, nil, nil, WithBcryptCost(bcrypt.MinCost)), repo
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	profile, err := svc.CreateUser(ctx, CreateUserRequest{CustomerID: "acme", Username: "bob", Password: "s3cret-pass", Role: "viewer"})
	require.NoError(t, err)
	assert.Equal(t, "viewer", profile.Role)

	stored, err := repo.FindUser(ctx, "acme", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
	assert.False(t, stored.IsSystem)

	_, err = svc.CreateUser(ctx, CreateUserRequest{CustomerID: "acme", Username: "bob", Password: "another-pass", Role: "viewer"})
	assert.ErrorIs(t, err, ErrExists)
}

func TestCreateUserRequiresRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{CustomerID: "acme", Username: "bob", Password: "s3cret-pass", Role: "ghost"})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "ghost")
}

func TestUpdateAndResetPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, CreateUserRequest{CustomerID: "acme", Username: "bob", Password: "s3cret-pass", Role: "viewer"})
	require.NoError(t, err)

	profile, err := svc.UpdateUser(ctx, UpdateUserRequest{CustomerID: "acme", Username: "bob", Role: "editor"})
	require.NoError(t, err)
	assert.Equal(t, "editor", profile.Role)

	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordRequest{CustomerID: "acme", Username: "bob", Password: "brand-new-pass"}))
	stored, err := repo.FindUser(ctx, "acme", "bob")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand-new-pass")))

	assert.ErrorIs(t, svc.ResetPassword(ctx, ResetPasswordRequest{CustomerID: "globex", Username: "bob", Password: "brand-new-pass"}), ErrNotFound)
}

func TestListUsersOmitsHashes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"carol", "bob"} {
		_, err := svc.CreateUser(ctx, CreateUserRequest{CustomerID: "acme", Username: name, Password: "s3cret-pass", Role: "viewer"})
		require.NoError(t, err)
	}

	profiles, next, err := svc.ListUsers(ctx, "acme", 10, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, profiles, 2)
	assert.Equal(t, "bob", profiles[0].Username)
}

func TestEnsureSystemUserIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSystemUser(ctx, "root", "first-password"))
	require.NoError(t, svc.EnsureSystemUser(ctx, "root", "second-password"))

	user, err := repo.FindUser(ctx, SystemCustomer, "root")
	require.NoError(t, err)
	assert.True(t, user.IsSystem)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("second-password")))

	assert.Error(t, svc.EnsureSystemUser(ctx, "", "x"))
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, CreateUserRequest{CustomerID: "acme", Username: "bob", Password: "s3cret-pass", Role: "viewer"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, "acme", "bob"))
	_, err = svc.DescribeUser(ctx, "acme", "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}
