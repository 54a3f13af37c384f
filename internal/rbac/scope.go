package rbac

import "strings"

// CustomerParam is the request parameter naming the target customer.
const CustomerParam = "customer_id"

// Params is the decoded query (GET) or body (mutations) of a request.
type Params map[string]any

// Clone returns a shallow copy of p. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the trimmed string value stored under key, if any.
func (p Params) String(key string) string {
	v, ok := p[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Customer returns the scoped target customer.
func (p Params) Customer() string {
	return p.String(CustomerParam)
}

// Scope returns a copy of params in which a non-system caller's customer_id
// is forced to the caller's own customer, discarding whatever was supplied.
// System callers keep their requested customer_id. A nil identity leaves the
// parameters untouched.
func Scope(id *Identity, params Params) Params {
	scoped := params.Clone()
	if id == nil || id.IsSystem {
		return scoped
	}
	scoped[CustomerParam] = id.Customer
	return scoped
}
