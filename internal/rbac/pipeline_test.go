package rbac

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	id  *Identity
	err error
}

func (s stubResolver) Resolve(*http.Request) (*Identity, error) {
	return s.id, s.err
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (c *countingRecorder) RecordDecision(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[string]int{}
	}
	c.outcomes[outcome]++
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStores() *stubStores {
	stores := newStubStores()
	stores.addPolicy(Policy{Customer: "acme", Name: "readers", Permissions: []string{"*:describe"}})
	stores.addRole(Role{Customer: "acme", Name: "reader", Policies: []string{"readers"}})
	return stores
}

func TestAuthorizeAndScopeSystemBypassesEngine(t *testing.T) {
	stores := seededStores()
	recorder := &countingRecorder{}
	p := NewPipeline(DefaultCatalog(), newTestEngine(stores), nil, quietLogger(), recorder)

	for _, target := range DefaultCatalog().All() {
		decision, err := p.AuthorizeAndScope(context.Background(), &Identity{Username: "root", IsSystem: true}, target, Params{CustomerParam: "globex"})
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, "globex", decision.Params.Customer())
	}
	assert.Zero(t, stores.calls())
	assert.Equal(t, len(DefaultCatalog().All()), recorder.outcomes[OutcomeSystem])
}

func TestAuthorizeAndScopeUnmappedIsPublic(t *testing.T) {
	stores := seededStores()
	p := NewPipeline(DefaultCatalog(), newTestEngine(stores), nil, quietLogger(), nil)

	decision, err := p.AuthorizeAndScope(context.Background(), nil, "", Params{"username": "a"})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonNone, decision.Reason)
	assert.Zero(t, stores.calls())
}

func TestAuthorizeAndScopeRequiresIdentityOnMappedRoutes(t *testing.T) {
	stores := seededStores()
	p := NewPipeline(DefaultCatalog(), newTestEngine(stores), nil, quietLogger(), nil)

	decision, err := p.AuthorizeAndScope(context.Background(), nil, PermRoleDescribe, nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonUnauthenticated, decision.Reason)
	assert.Zero(t, stores.calls())
}

func TestAuthorizeAndScopeEvaluatesAgainstCallerCustomer(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), newTestEngine(seededStores()), nil, quietLogger(), nil)
	id := &Identity{Username: "alice", Customer: "acme", Role: "reader"}

	decision, err := p.AuthorizeAndScope(context.Background(), id, PermRoleDescribe, Params{CustomerParam: "globex"})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, "acme", decision.Params.Customer())

	decision, err = p.AuthorizeAndScope(context.Background(), id, PermRoleCreate, Params{})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonForbidden, decision.Reason)
	assert.Equal(t, PermRoleCreate, decision.Verdict.Permission)
}

func TestAuthorizeAndScopeInfrastructureError(t *testing.T) {
	stores := seededStores()
	stores.roleErr = errors.New("store offline")
	p := NewPipeline(DefaultCatalog(), newTestEngine(stores), nil, quietLogger(), nil)

	_, err := p.AuthorizeAndScope(context.Background(), &Identity{Customer: "acme", Role: "reader"}, PermRoleDescribe, nil)
	assert.ErrorIs(t, err, ErrInfrastructure)
}

type middlewareFixture struct {
	stores  *stubStores
	handler http.Handler
	seen    *Params
	seenID  **Identity
}

func newMiddlewareFixture(t *testing.T, resolver IdentityResolver) middlewareFixture {
	t.Helper()
	stores := seededStores()
	var seen Params
	var seenID *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ParamsFromContext(r.Context())
		seenID = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	p := NewPipeline(DefaultCatalog(), newTestEngine(stores), resolver, quietLogger(), nil)
	return middlewareFixture{stores: stores, handler: p.Middleware(next), seen: &seen, seenID: &seenID}
}

func (f middlewareFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestMiddlewareDispatchesScopedParams(t *testing.T) {
	f := newMiddlewareFixture(t, stubResolver{id: &Identity{Username: "alice", Customer: "acme", Role: "reader"}})

	rec := f.do(http.MethodGet, "/roles?customer_id=globex&name=r1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acme", f.seen.Customer())
	assert.Equal(t, "r1", f.seen.String("name"))
	require.NotNil(t, *f.seenID)
	assert.Equal(t, "alice", (*f.seenID).Username)
}

func TestMiddlewareForbiddenNamesPermission(t *testing.T) {
	f := newMiddlewareFixture(t, stubResolver{id: &Identity{Username: "alice", Customer: "acme", Role: "reader"}})

	rec := f.do(http.MethodPost, "/roles", `{"name":"r2"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "role:create")
	assert.Nil(t, *f.seen)
}

func TestMiddlewareUnauthenticatedHasNoDetail(t *testing.T) {
	f := newMiddlewareFixture(t, stubResolver{})

	rec := f.do(http.MethodGet, "/tenants", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, decodeProblem(t, rec)["detail"])
	assert.Zero(t, f.stores.calls())
}

func TestMiddlewareInvalidCredentialsTreatedAsAnonymous(t *testing.T) {
	f := newMiddlewareFixture(t, stubResolver{err: errors.New("token expired")})

	rec := f.do(http.MethodGet, "/tenants", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/signin", `{"username":"a","password":"b"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, *f.seenID)
	assert.Equal(t, "a", f.seen.String("username"))
}

func TestMiddlewareResolverOutageIs500(t *testing.T) {
	f := newMiddlewareFixture(t, stubResolver{err: fmt.Errorf("%w: check revocation: dial tcp 10.0.0.2:6379: connection refused", ErrInfrastructure)})

	rec := f.do(http.MethodGet, "/tenants", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.2")
	assert.Nil(t, *f.seen)

	rec = f.do(http.MethodPost, "/signin", `{"username":"a","password":"b"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, *f.seenID)
}

func TestMiddlewareMalformedBody(t *testing.T) {
	f := newMiddlewareFixture(t, stubResolver{id: &Identity{Username: "root", IsSystem: true}})

	for _, body := range []string{`{"name":`, `[1,2]`, `null`, `"text"`} {
		rec := f.do(http.MethodPost, "/roles", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestMiddlewareEmptyBodyIsEmptyParams(t *testing.T) {
	f := newMiddlewareFixture(t, stubResolver{id: &Identity{Username: "root", IsSystem: true}})

	rec := f.do(http.MethodDelete, "/roles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, *f.seen)
}

func TestMiddlewareInfrastructureErrorIsGeneric500(t *testing.T) {
	f := newMiddlewareFixture(t, stubResolver{id: &Identity{Username: "alice", Customer: "acme", Role: "reader"}})
	f.stores.roleErr = errors.New("dial tcp 10.0.0.1:5432: connection refused")

	rec := f.do(http.MethodGet, "/roles", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}
