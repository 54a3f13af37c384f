package policies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
)

// RepositoryPort defines data access methods for policies.
type RepositoryPort interface {
	Get(ctx context.Context, customer, name string) (rbac.Policy, error)
	Insert(ctx context.Context, policy rbac.Policy) error
	Put(ctx context.Context, policy rbac.Policy) error
	Delete(ctx context.Context, customer, name string) error
	List(ctx context.Context, customer string, limit int, cursor string) ([]rbac.Policy, string, error)
}

// Auditor records mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles policy business logic.
type Service struct {
	repo    RepositoryPort
	catalog *rbac.Catalog
	audit   Auditor
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, catalog *rbac.Catalog, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: catalog, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Describe returns one policy.
func (s *Service) Describe(ctx context.Context, customer, name string) (rbac.Policy, error) {
	return s.repo.Get(ctx, customer, name)
}

// List returns one page of policies.
func (s *Service) List(ctx context.Context, customer string, limit int, cursor string) ([]rbac.Policy, string, error) {
	return s.repo.List(ctx, customer, limit, cursor)
}

// Create stores a new policy after validating its grants against the catalog.
func (s *Service) Create(ctx context.Context, req CreateRequest) (rbac.Policy, error) {
	if err := s.validateGrants(ctx, req.Permissions); err != nil {
		return rbac.Policy{}, err
	}
	now := s.now()
	policy := rbac.Policy{Customer: req.CustomerID, Name: req.Name, CreatedAt: now, UpdatedAt: now}
	policy.AttachPermissions(req.Permissions...)
	if err := s.repo.Insert(ctx, policy); err != nil {
		return rbac.Policy{}, err
	}
	s.record(ctx, "create", policy.Customer, policy.Name, map[string]any{"permissions": policy.Permissions})
	return policy, nil
}

// Update attaches then detaches permissions. Attaching a held permission and
// detaching an absent one are no-ops.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (rbac.Policy, error) {
	if err := s.validateGrants(ctx, req.PermissionsToAttach); err != nil {
		return rbac.Policy{}, err
	}
	policy, err := s.repo.Get(ctx, req.CustomerID, req.Name)
	if err != nil {
		return rbac.Policy{}, err
	}
	policy.AttachPermissions(req.PermissionsToAttach...)
	policy.DetachPermissions(req.PermissionsToDetach...)
	policy.UpdatedAt = s.now()
	if err := s.repo.Put(ctx, policy); err != nil {
		return rbac.Policy{}, err
	}
	s.record(ctx, "update", policy.Customer, policy.Name, map[string]any{
		"attached": req.PermissionsToAttach,
		"detached": req.PermissionsToDetach,
	})
	return policy, nil
}

// Delete removes a policy. Roles still naming it keep a dangling reference
// that grants nothing.
func (s *Service) Delete(ctx context.Context, customer, name string) error {
	if err := s.repo.Delete(ctx, customer, name); err != nil {
		return err
	}
	s.record(ctx, "delete", customer, name, nil)
	return nil
}

func (s *Service) validateGrants(ctx context.Context, grants []string) error {
	err := s.catalog.ValidateGrants(grants, shared.IsSystem(ctx))
	if errors.Is(err, rbac.ErrUnknownPermission) {
		return fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	}
	return err
}

func (s *Service) record(ctx context.Context, action, customer, name string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Customer: customer,
		Actor:    shared.Actor(ctx),
		Action:   action,
		Entity:   "policy",
		EntityID: name,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Error("record policy audit", slog.String("policy", name), slog.Any("error", err))
	}
}
