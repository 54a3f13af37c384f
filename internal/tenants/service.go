package tenants

import (
	"context"
	"time"

	"github.com/modular-admin/modular-admin/internal/rbac"
)

// RepositoryPort defines data access methods for tenants.
type RepositoryPort interface {
	Get(ctx context.Context, customer, name string) (Tenant, error)
	Insert(ctx context.Context, t Tenant) error
	Put(ctx context.Context, t Tenant) error
	Delete(ctx context.Context, customer, name string) error
	List(ctx context.Context, customer string, limit int, cursor string) ([]Tenant, string, error)
}

// Service handles tenant lifecycle. Only structural validation applies.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Describe returns one tenant.
func (s *Service) Describe(ctx context.Context, customer, name string) (Tenant, error) {
	return s.repo.Get(ctx, customer, name)
}

// List returns one page of tenants.
func (s *Service) List(ctx context.Context, customer string, limit int, cursor string) ([]Tenant, string, error) {
	return s.repo.List(ctx, customer, limit, cursor)
}

// Create stores an active tenant.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Tenant, error) {
	now := s.now()
	t := Tenant{
		Customer:      req.CustomerID,
		Name:          req.Name,
		DisplayName:   req.DisplayName,
		ContactEmails: rbac.Dedupe(req.ContactEmails),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return Tenant{}, err
	}
	return t, nil
}

// Update applies the non-nil fields of req.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (Tenant, error) {
	t, err := s.repo.Get(ctx, req.CustomerID, req.Name)
	if err != nil {
		return Tenant{}, err
	}
	if req.DisplayName != nil {
		t.DisplayName = *req.DisplayName
	}
	if req.ContactEmails != nil {
		t.ContactEmails = rbac.Dedupe(*req.ContactEmails)
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	t.UpdatedAt = s.now()
	if err := s.repo.Put(ctx, t); err != nil {
		return Tenant{}, err
	}
	return t, nil
}

// Delete removes a tenant.
func (s *Service) Delete(ctx context.Context, customer, name string) error {
	return s.repo.Delete(ctx, customer, name)
}
