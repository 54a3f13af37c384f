package rbac

import (
	"sort"
	"time"
)

// Bootstrap entity names created for every new customer.
const (
	AdminPolicyName = "admin_policy"
	AdminRoleName   = "admin_role"
)

// Policy is a named, customer-scoped set of permission strings. Permissions
// stay raw strings so unknown or malformed grants survive a round trip and are
// denied by matching rather than rejected by decoding.
type Policy struct {
	Customer    string    `json:"customer"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AttachPermissions adds grants, collapsing duplicates.
func (p *Policy) AttachPermissions(perms ...string) {
	p.Permissions = unionSorted(p.Permissions, perms)
}

// DetachPermissions removes grants.
func (p *Policy) DetachPermissions(perms ...string) {
	p.Permissions = subtract(p.Permissions, perms)
}

// Role is a named, customer-scoped list of policy names with an optional
// expiration instant.
type Role struct {
	Customer   string     `json:"customer"`
	Name       string     `json:"name"`
	Policies   []string   `json:"policies"`
	Expiration *time.Time `json:"expiration"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Expired reports whether the role grants nothing at now.
func (r *Role) Expired(now time.Time) bool {
	return r.Expiration != nil && !now.UTC().Before(r.Expiration.UTC())
}

// AttachPolicies adds policy names, collapsing duplicates.
func (r *Role) AttachPolicies(names ...string) {
	r.Policies = unionSorted(r.Policies, names)
}

// DetachPolicies removes policy names.
func (r *Role) DetachPolicies(names ...string) {
	r.Policies = subtract(r.Policies, names)
}

// Identity is the verified caller of a request.
type Identity struct {
	Username string `json:"username"`
	Customer string `json:"customer"`
	Role     string `json:"role"`
	IsSystem bool   `json:"is_system"`
}

// Verdict is the outcome of a single permission check.
type Verdict struct {
	Allowed    bool
	Permission Permission
}

// Dedupe returns values with duplicates and empty strings removed, sorted.
func Dedupe(values []string) []string {
	return unionSorted(nil, values)
}

func unionSorted(base, extra []string) []string {
	set := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := set[v]; ok {
				continue
			}
			set[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func subtract(base, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, v := range remove {
		drop[v] = struct{}{}
	}
	out := make([]string, 0, len(base))
	for _, v := range base {
		if _, ok := drop[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
