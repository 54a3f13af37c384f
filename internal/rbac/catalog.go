package rbac

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Permission is a "<domain>:<action>" grant string.
type Permission string

// Catalog permissions. The set is closed: every mapped route below uses one
// of these values.
const (
	PermCustomerDescribe Permission = "customer:describe"
	PermCustomerCreate   Permission = "customer:create"
	PermCustomerUpdate   Permission = "customer:update"
	PermCustomerDelete   Permission = "customer:delete"

	PermTenantDescribe Permission = "tenant:describe"
	PermTenantCreate   Permission = "tenant:create"
	PermTenantUpdate   Permission = "tenant:update"
	PermTenantDelete   Permission = "tenant:delete"

	PermRoleDescribe Permission = "role:describe"
	PermRoleCreate   Permission = "role:create"
	PermRoleUpdate   Permission = "role:update"
	PermRoleDelete   Permission = "role:delete"

	PermPolicyDescribe Permission = "policy:describe"
	PermPolicyCreate   Permission = "policy:create"
	PermPolicyUpdate   Permission = "policy:update"
	PermPolicyDelete   Permission = "policy:delete"

	PermUserDescribe      Permission = "user:describe"
	PermUserCreate        Permission = "user:create"
	PermUserUpdate        Permission = "user:update"
	PermUserDelete        Permission = "user:delete"
	PermUserResetPassword Permission = "user:reset_password"

	PermPermissionDescribe Permission = "permission:describe"

	PermJobDescribe Permission = "job:describe"
	PermJobTrigger  Permission = "job:trigger"
)

// Endpoint identifies a routed resource path.
type Endpoint string

// Routed endpoints.
const (
	EndpointHealth        Endpoint = "/health"
	EndpointMetrics       Endpoint = "/metrics"
	EndpointSignIn        Endpoint = "/signin"
	EndpointSignOut       Endpoint = "/signout"
	EndpointSignUp        Endpoint = "/signup"
	EndpointCustomers     Endpoint = "/customers"
	EndpointTenants       Endpoint = "/tenants"
	EndpointRoles         Endpoint = "/roles"
	EndpointPolicies      Endpoint = "/policies"
	EndpointUsers         Endpoint = "/users"
	EndpointResetPassword Endpoint = "/users/reset-password"
	EndpointPermissions   Endpoint = "/permissions"
	EndpointJobs          Endpoint = "/jobs"
)

// Route maps an endpoint and HTTP method to the permission it requires.
type Route struct {
	Endpoint   Endpoint
	Method     string
	Permission Permission
}

// PublicRoute is a route deliberately left out of the permission mapping.
type PublicRoute struct {
	Endpoint Endpoint
	Method   string
}

// PermissionInfo is the listing form of a catalog permission.
type PermissionInfo struct {
	Permission  Permission `json:"permission"`
	Description string     `json:"description"`
	Hidden      bool       `json:"-"`
}

var (
	// ErrUnknownPermission is returned when a grant is absent from the catalog.
	ErrUnknownPermission = errors.New("rbac: unknown permission")

	permissionPattern = regexp.MustCompile(`^[a-zA-Z0-9_*]+:[a-zA-Z0-9_*]+$`)
)

var defaultRoutes = []Route{
	{EndpointCustomers, http.MethodGet, PermCustomerDescribe},
	{EndpointCustomers, http.MethodPost, PermCustomerCreate},
	{EndpointCustomers, http.MethodPatch, PermCustomerUpdate},
	{EndpointCustomers, http.MethodDelete, PermCustomerDelete},

	{EndpointTenants, http.MethodGet, PermTenantDescribe},
	{EndpointTenants, http.MethodPost, PermTenantCreate},
	{EndpointTenants, http.MethodPatch, PermTenantUpdate},
	{EndpointTenants, http.MethodDelete, PermTenantDelete},

	{EndpointRoles, http.MethodGet, PermRoleDescribe},
	{EndpointRoles, http.MethodPost, PermRoleCreate},
	{EndpointRoles, http.MethodPatch, PermRoleUpdate},
	{EndpointRoles, http.MethodDelete, PermRoleDelete},

	{EndpointPolicies, http.MethodGet, PermPolicyDescribe},
	{EndpointPolicies, http.MethodPost, PermPolicyCreate},
	{EndpointPolicies, http.MethodPatch, PermPolicyUpdate},
	{EndpointPolicies, http.MethodDelete, PermPolicyDelete},

	{EndpointUsers, http.MethodGet, PermUserDescribe},
	{EndpointUsers, http.MethodPost, PermUserCreate},
	{EndpointUsers, http.MethodPatch, PermUserUpdate},
	{EndpointUsers, http.MethodDelete, PermUserDelete},
	{EndpointResetPassword, http.MethodPost, PermUserResetPassword},

	{EndpointPermissions, http.MethodGet, PermPermissionDescribe},

	{EndpointJobs, http.MethodGet, PermJobDescribe},
	{EndpointJobs, http.MethodPost, PermJobTrigger},
}

// Hidden permissions are reserved for system callers and left out of listings.
var defaultHidden = []Permission{
	PermCustomerCreate,
	PermCustomerUpdate,
	PermCustomerDelete,
	PermJobDescribe,
	PermJobTrigger,
}

// PublicRoutes need no identity. Any routed endpoint that is neither here nor
// in the catalog mapping is a programming error caught by the router tests.
var PublicRoutes = []PublicRoute{
	{EndpointHealth, http.MethodGet},
	{EndpointMetrics, http.MethodGet},
	{EndpointSignIn, http.MethodPost},
	{EndpointSignOut, http.MethodPost},
	{EndpointSignUp, http.MethodPost},
}

type routeKey struct {
	endpoint Endpoint
	method   string
}

// Catalog is the immutable permission catalog. Safe for concurrent readers.
type Catalog struct {
	routes      map[routeKey]Permission
	ordered     []Route
	permissions []Permission
	known       map[Permission]struct{}
	hidden      map[Permission]struct{}
}

// NewCatalog builds a catalog from route mappings and hidden permissions.
func NewCatalog(routes []Route, hidden []Permission) (*Catalog, error) {
	c := &Catalog{
		routes: make(map[routeKey]Permission, len(routes)),
		known:  make(map[Permission]struct{}),
		hidden: make(map[Permission]struct{}, len(hidden)),
	}
	for _, route := range routes {
		if !permissionPattern.MatchString(string(route.Permission)) || strings.Contains(string(route.Permission), "*") {
			return nil, fmt.Errorf("rbac: catalog permission %q is malformed", route.Permission)
		}
		key := routeKey{normalizeEndpoint(route.Endpoint), strings.ToUpper(route.Method)}
		if _, dup := c.routes[key]; dup {
			return nil, fmt.Errorf("rbac: duplicate catalog route %s %s", key.method, key.endpoint)
		}
		c.routes[key] = route.Permission
		c.ordered = append(c.ordered, Route{Endpoint: key.endpoint, Method: key.method, Permission: route.Permission})
		if _, ok := c.known[route.Permission]; !ok {
			c.known[route.Permission] = struct{}{}
			c.permissions = append(c.permissions, route.Permission)
		}
	}
	for _, p := range hidden {
		if _, ok := c.known[p]; !ok {
			return nil, fmt.Errorf("rbac: hidden permission %q is not mapped", p)
		}
		c.hidden[p] = struct{}{}
	}
	sort.Slice(c.permissions, func(i, j int) bool { return c.permissions[i] < c.permissions[j] })
	return c, nil
}

var defaultCatalog = mustCatalog(NewCatalog(defaultRoutes, defaultHidden))

// DefaultCatalog returns the catalog of this API.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func mustCatalog(c *Catalog, err error) *Catalog {
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the permission required for the route. ok is false when the
// route has no mapping, which means no authorization is required.
func (c *Catalog) Lookup(endpoint Endpoint, method string) (Permission, bool) {
	p, ok := c.routes[routeKey{normalizeEndpoint(endpoint), strings.ToUpper(method)}]
	return p, ok
}

// Routes returns every mapped route in declaration order.
func (c *Catalog) Routes() []Route {
	out := make([]Route, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// All returns every catalog permission, hidden ones included, sorted.
func (c *Catalog) All() []Permission {
	out := make([]Permission, len(c.permissions))
	copy(out, c.permissions)
	return out
}

// Visible returns the non-hidden permissions, sorted.
func (c *Catalog) Visible() []Permission {
	out := make([]Permission, 0, len(c.permissions))
	for _, p := range c.permissions {
		if _, hidden := c.hidden[p]; !hidden {
			out = append(out, p)
		}
	}
	return out
}

// IsHidden reports whether p is a hidden catalog permission.
func (c *Catalog) IsHidden(p Permission) bool {
	_, ok := c.hidden[p]
	return ok
}

// Contains reports whether p is a catalog permission.
func (c *Catalog) Contains(p Permission) bool {
	_, ok := c.known[p]
	return ok
}

// Describe lists the visible permissions with human readable descriptions.
func (c *Catalog) Describe() []PermissionInfo {
	title := cases.Title(language.English)
	visible := c.Visible()
	out := make([]PermissionInfo, 0, len(visible))
	for _, p := range visible {
		domain, action, _ := p.Split()
		out = append(out, PermissionInfo{
			Permission:  p,
			Description: title.String(strings.ReplaceAll(action, "_", " ")) + " " + domain,
		})
	}
	return out
}

// ValidateGrants checks user supplied grant strings at write time. A grant is
// accepted when it is a visible catalog permission, a hidden one and the
// caller is a system identity, or a wildcard pattern covering at least one
// visible permission. Only system callers may write wildcards that also cover
// a hidden permission.
func (c *Catalog) ValidateGrants(grants []string, system bool) error {
	var rejected []string
	for _, g := range grants {
		if !c.grantAllowed(g, system) {
			rejected = append(rejected, g)
		}
	}
	if len(rejected) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPermission, strings.Join(rejected, ", "))
	}
	return nil
}

func (c *Catalog) grantAllowed(grant string, system bool) bool {
	if !permissionPattern.MatchString(grant) {
		return false
	}
	p := Permission(grant)
	if c.Contains(p) {
		return system || !c.IsHidden(p)
	}
	if !strings.Contains(grant, "*") {
		return false
	}
	if !system {
		for h := range c.hidden {
			if Match(grant, string(h)) {
				return false
			}
		}
	}
	for _, v := range c.Visible() {
		if Match(grant, string(v)) {
			return true
		}
	}
	return false
}

// Split breaks the permission on its first colon.
func (p Permission) Split() (domain, action string, ok bool) {
	return strings.Cut(string(p), ":")
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// WellFormed reports whether s matches the permission grammar.
func WellFormed(s string) bool {
	return permissionPattern.MatchString(s)
}

func normalizeEndpoint(e Endpoint) Endpoint {
	s := string(e)
	if len(s) > 1 {
		s = strings.TrimRight(s, "/")
	}
	if s == "" {
		s = "/"
	}
	return Endpoint(s)
}
