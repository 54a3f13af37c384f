package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modular-admin/modular-admin/internal/platform/docstore"
	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/policies"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	repo     *Repository
	policies *policies.Repository
	audit    *shared.AuditLogger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := docstore.NewMemory()
	policyRepo := policies.NewRepository(store)
	ctx := context.Background()
	require.NoError(t, policyRepo.Insert(ctx, rbac.Policy{Customer: "acme", Name: "readers", Permissions: []string{"*:describe"}}))
	require.NoError(t, policyRepo.Insert(ctx, rbac.Policy{Customer: "acme", Name: "writers", Permissions: []string{"role:create"}}))

	repo := NewRepository(store)
	audit := shared.NewAuditLogger(store)
	svc := NewService(repo, policyRepo, audit, nil)
	svc.now = func() time.Time { return testNow }
	return fixture{svc: svc, repo: repo, policies: policyRepo, audit: audit}
}

func strPtr(s string) *string { return &s }

func TestCreateRoleRequiresExistingPolicies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: "r", Policies: []string{"readers", "ghost"}})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "ghost")

	role, err := f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: "r", Policies: []string{"readers", "readers"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"readers"}, role.Policies)
	assert.Nil(t, role.Expiration)

	_, err = f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: "r"})
	assert.ErrorIs(t, err, ErrExists)

	_, err = f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "globex", Name: "r", Policies: []string{"readers"}})
	assert.ErrorIs(t, err, httpx.ErrValidation, "policies resolve inside the role's customer")
}

func TestCreateRoleExpiration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: "past", Expiration: strPtr("2020-01-01T00:00:00Z")})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: "garbled", Expiration: strPtr("tomorrow")})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	role, err := f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: "temp", Expiration: strPtr("2026-05-01T12:00:00+02:00")})
	require.NoError(t, err)
	require.NotNil(t, role.Expiration)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), *role.Expiration)
}

func TestExpiredRoleDeniedByEngine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateRole(ctx, CreateRoleRequest{
		CustomerID: "acme",
		Name:       "temp",
		Policies:   []string{"readers"},
		Expiration: strPtr(testNow.Add(time.Hour).Format(time.RFC3339)),
	})
	require.NoError(t, err)

	clock := testNow
	engine := rbac.NewEngine(f.repo, f.policies, rbac.WithClock(func() time.Time { return clock }))
	ok, err := engine.IsAllowed(ctx, "acme", "temp", rbac.PermTenantDescribe)
	require.NoError(t, err)
	assert.True(t, ok)

	clock = testNow.Add(time.Hour)
	ok, err = engine.IsAllowed(ctx, "acme", "temp", rbac.PermTenantDescribe)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: "r", Policies: []string{"readers"}, Expiration: strPtr("2027-01-01T00:00:00Z")})
	require.NoError(t, err)

	role, err := f.svc.UpdateRole(ctx, UpdateRoleRequest{CustomerID: "acme", Name: "r", PoliciesToAttach: []string{"writers", "readers"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"readers", "writers"}, role.Policies)
	require.NotNil(t, role.Expiration, "nil expiration keeps the current value")

	role, err = f.svc.UpdateRole(ctx, UpdateRoleRequest{CustomerID: "acme", Name: "r", PoliciesToDetach: []string{"readers"}, Expiration: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, []string{"writers"}, role.Policies)
	assert.Nil(t, role.Expiration)

	_, err = f.svc.UpdateRole(ctx, UpdateRoleRequest{CustomerID: "acme", Name: "r", PoliciesToAttach: []string{"ghost"}})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = f.svc.UpdateRole(ctx, UpdateRoleRequest{CustomerID: "acme", Name: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletedPolicyLeavesDanglingReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: "r", Policies: []string{"readers", "writers"}})
	require.NoError(t, err)
	require.NoError(t, f.policies.Delete(ctx, "acme", "writers"))

	engine := rbac.NewEngine(f.repo, f.policies)
	ok, err := engine.IsAllowed(ctx, "acme", "r", rbac.PermRoleCreate)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = engine.IsAllowed(ctx, "acme", "r", rbac.PermRoleDescribe)
	require.NoError(t, err)
	assert.True(t, ok)

	role, err := f.svc.DescribeRole(ctx, "acme", "r")
	require.NoError(t, err)
	assert.Contains(t, role.Policies, "writers")
}

func TestDeleteRoleAudited(t *testing.T) {
	f := newFixture(t)
	ctx := rbac.ContextWithIdentity(context.Background(), &rbac.Identity{Username: "alice", Customer: "acme"})
	_, err := f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: "r"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteRole(ctx, "acme", "r"))
	assert.ErrorIs(t, f.svc.DeleteRole(ctx, "acme", "r"), ErrNotFound)

	logs, _, err := f.audit.List(ctx, "acme", 10, "")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	actions := []string{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []string{"create", "delete"}, actions)

	role, err := f.repo.LookupRole(ctx, "acme", "r")
	require.NoError(t, err)
	assert.Nil(t, role)
}

func TestListRolesPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"c", "a", "b"} {
		_, err := f.svc.CreateRole(ctx, CreateRoleRequest{CustomerID: "acme", Name: name})
		require.NoError(t, err)
	}

	page, next, err := f.svc.ListRoles(ctx, "acme", 2, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].Name)
	require.NotEmpty(t, next)

	page, next, err = f.svc.ListRoles(ctx, "acme", 2, next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].Name)
	assert.Empty(t, next)
}
