package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrInfrastructure marks store failures during evaluation. It is never a deny.
var ErrInfrastructure = errors.New("rbac: infrastructure failure")

// RoleStore resolves roles for the engine. An absent role is (nil, nil).
type RoleStore interface {
	LookupRole(ctx context.Context, customer, name string) (*Role, error)
}

// PolicyStore resolves policies for the engine. An absent policy is (nil, nil).
type PolicyStore interface {
	LookupPolicy(ctx context.Context, customer, name string) (*Policy, error)
}

// Engine evaluates role -> policy -> permission grants. It keeps no state
// between calls; expiration is evaluated against the clock on every call.
type Engine struct {
	roles       RoleStore
	policies    PolicyStore
	clock       func() time.Time
	logger      *slog.Logger
	concurrency int
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the logger used for data-integrity warnings.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithConcurrency bounds parallel policy lookups per evaluation.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine constructs an Engine over explicit stores.
func NewEngine(roles RoleStore, policies PolicyStore, opts ...EngineOption) *Engine {
	e := &Engine{
		roles:       roles,
		policies:    policies,
		clock:       func() time.Time { return time.Now().UTC() },
		logger:      slog.Default(),
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsAllowed reports whether roleName in customer grants target.
func (e *Engine) IsAllowed(ctx context.Context, customer, roleName string, target Permission) (bool, error) {
	verdict, err := e.Evaluate(ctx, customer, roleName, target)
	return verdict.Allowed, err
}

// Evaluate resolves the role, its policies and their union of grants, then
// matches target against it. Absent roles and policies deny; store failures
// return an error wrapping ErrInfrastructure.
func (e *Engine) Evaluate(ctx context.Context, customer, roleName string, target Permission) (Verdict, error) {
	verdict := Verdict{Permission: target}

	role, err := e.roles.LookupRole(ctx, customer, roleName)
	if err != nil {
		return verdict, fmt.Errorf("%w: resolve role: %w", ErrInfrastructure, err)
	}
	if role == nil {
		return verdict, nil
	}
	if role.Expired(e.clock()) {
		return verdict, nil
	}

	names := Dedupe(role.Policies)
	if len(names) == 0 {
		return verdict, nil
	}
	resolved := make([]*Policy, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, name := range names {
		g.Go(func() error {
			policy, err := e.policies.LookupPolicy(gctx, customer, name)
			if err != nil {
				return err
			}
			resolved[i] = policy
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return verdict, fmt.Errorf("%w: resolve policies: %w", ErrInfrastructure, err)
	}

	granted := make(map[string]struct{})
	for _, policy := range resolved {
		if policy == nil {
			continue
		}
		for _, p := range policy.Permissions {
			granted[p] = struct{}{}
		}
	}

	for p := range granted {
		if !strings.Contains(p, ":") {
			e.logger.Warn("malformed permission in policy grants",
				slog.String("customer", customer),
				slog.String("role", roleName),
				slog.String("permission", p),
			)
			continue
		}
		if Match(p, string(target)) {
			verdict.Allowed = true
			return verdict, nil
		}
	}
	return verdict, nil
}

// Match reports whether the granted permission covers target. Both are split
// on their first colon; either lacking one never matches. A "*" domain or
// action on the granted side matches anything; "*" in target is literal.
func Match(granted, target string) bool {
	gDomain, gAction, ok := strings.Cut(granted, ":")
	if !ok {
		return false
	}
	tDomain, tAction, ok := strings.Cut(target, ":")
	if !ok {
		return false
	}
	return (tDomain == gDomain || gDomain == "*") && (tAction == gAction || gAction == "*")
}
