package rbac

import "context"

type identityContextKey struct{}

type paramsContextKey struct{}

// ContextWithIdentity stores the resolved caller in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the resolved caller; nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}

// ContextWithParams stores the scoped request parameters in context.
func ContextWithParams(ctx context.Context, params Params) context.Context {
	return context.WithValue(ctx, paramsContextKey{}, params)
}

// ParamsFromContext returns the scoped request parameters. Handlers must read
// customer_id from here and never from the raw request.
func ParamsFromContext(ctx context.Context) Params {
	params, _ := ctx.Value(paramsContextKey{}).(Params)
	if params == nil {
		return Params{}
	}
	return params
}
