package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	GetRole(ctx context.Context, customer, name string) (rbac.Role, error)
	CreateRole(ctx context.Context, role rbac.Role) error
	SaveRole(ctx context.Context, role rbac.Role) error
	DeleteRole(ctx context.Context, customer, name string) error
	ListRoles(ctx context.Context, customer string, limit int, cursor string) ([]rbac.Role, string, error)
}

// Auditor records mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles role business logic.
type Service struct {
	repo     RepositoryPort
	policies rbac.PolicyStore
	audit    Auditor
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, policies rbac.PolicyStore, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, policies: policies, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// DescribeRole returns one role.
func (s *Service) DescribeRole(ctx context.Context, customer, name string) (rbac.Role, error) {
	return s.repo.GetRole(ctx, customer, name)
}

// ListRoles returns one page of roles.
func (s *Service) ListRoles(ctx context.Context, customer string, limit int, cursor string) ([]rbac.Role, string, error) {
	return s.repo.ListRoles(ctx, customer, limit, cursor)
}

// CreateRole stores a new role. Every named policy must exist.
func (s *Service) CreateRole(ctx context.Context, req CreateRoleRequest) (rbac.Role, error) {
	now := s.now()
	role := rbac.Role{Customer: req.CustomerID, Name: req.Name, CreatedAt: now, UpdatedAt: now}
	if req.Expiration != nil && strings.TrimSpace(*req.Expiration) != "" {
		exp, err := s.parseExpiration(*req.Expiration)
		if err != nil {
			return rbac.Role{}, err
		}
		role.Expiration = &exp
	}
	if err := s.requirePolicies(ctx, req.CustomerID, req.Policies); err != nil {
		return rbac.Role{}, err
	}
	role.AttachPolicies(req.Policies...)
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return rbac.Role{}, err
	}
	s.record(ctx, "create", role, map[string]any{"policies": role.Policies})
	return role, nil
}

// UpdateRole attaches then detaches policies and optionally changes the
// expiration.
func (s *Service) UpdateRole(ctx context.Context, req UpdateRoleRequest) (rbac.Role, error) {
	role, err := s.repo.GetRole(ctx, req.CustomerID, req.Name)
	if err != nil {
		return rbac.Role{}, err
	}
	if req.Expiration != nil {
		if strings.TrimSpace(*req.Expiration) == "" {
			role.Expiration = nil
		} else {
			exp, err := s.parseExpiration(*req.Expiration)
			if err != nil {
				return rbac.Role{}, err
			}
			role.Expiration = &exp
		}
	}
	if err := s.requirePolicies(ctx, req.CustomerID, req.PoliciesToAttach); err != nil {
		return rbac.Role{}, err
	}
	role.AttachPolicies(req.PoliciesToAttach...)
	role.DetachPolicies(req.PoliciesToDetach...)
	role.UpdatedAt = s.now()
	if err := s.repo.SaveRole(ctx, role); err != nil {
		return rbac.Role{}, err
	}
	s.record(ctx, "update", role, map[string]any{
		"attached":   req.PoliciesToAttach,
		"detached":   req.PoliciesToDetach,
		"expiration": role.Expiration,
	})
	return role, nil
}

// DeleteRole removes a role. Users assigned to it are denied everything.
func (s *Service) DeleteRole(ctx context.Context, customer, name string) error {
	if err := s.repo.DeleteRole(ctx, customer, name); err != nil {
		return err
	}
	s.record(ctx, "delete", rbac.Role{Customer: customer, Name: name}, nil)
	return nil
}

func (s *Service) parseExpiration(raw string) (time.Time, error) {
	exp, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: expiration must be RFC3339", httpx.ErrValidation)
	}
	exp = exp.UTC()
	if !exp.After(s.now()) {
		return time.Time{}, fmt.Errorf("%w: expiration must be in the future", httpx.ErrValidation)
	}
	return exp, nil
}

func (s *Service) requirePolicies(ctx context.Context, customer string, names []string) error {
	var missing []string
	for _, name := range rbac.Dedupe(names) {
		policy, err := s.policies.LookupPolicy(ctx, customer, name)
		if err != nil {
			return fmt.Errorf("roles: resolve policy %s: %w", name, err)
		}
		if policy == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unknown policies: %s", httpx.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, role rbac.Role, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Customer: role.Customer,
		Actor:    shared.Actor(ctx),
		Action:   action,
		Entity:   "role",
		EntityID: role.Name,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Error("record role audit", slog.String("role", role.Name), slog.Any("error", err))
	}
}
