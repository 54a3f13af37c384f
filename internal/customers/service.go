package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
	"github.com/modular-admin/modular-admin/internal/users"
)

// RepositoryPort defines data access methods for customers.
type RepositoryPort interface {
	Get(ctx context.Context, name string) (Customer, error)
	Insert(ctx context.Context, c Customer) error
	Put(ctx context.Context, c Customer) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, limit int, cursor string) ([]Customer, string, error)
	Purge(ctx context.Context, customer string, collections []string) error
}

// PolicyWriter creates and removes policies.
type PolicyWriter interface {
	Insert(ctx context.Context, policy rbac.Policy) error
	Delete(ctx context.Context, customer, name string) error
}

// RoleWriter creates and removes roles.
type RoleWriter interface {
	CreateRole(ctx context.Context, role rbac.Role) error
	DeleteRole(ctx context.Context, customer, name string) error
}

// UserCreator creates user accounts.
type UserCreator interface {
	CreateUser(ctx context.Context, req users.CreateUserRequest) (users.Profile, error)
}

// Auditor records mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles customer lifecycle.
type Service struct {
	repo     RepositoryPort
	policies PolicyWriter
	roles    RoleWriter
	users    UserCreator
	catalog  *rbac.Catalog
	audit    Auditor
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, policies PolicyWriter, roles RoleWriter, users UserCreator, catalog *rbac.Catalog, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		policies: policies,
		roles:    roles,
		users:    users,
		catalog:  catalog,
		audit:    audit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SignUp creates the customer, its admin_policy granting every visible
// permission, its admin_role and the first administrator. A failing step
// undoes the ones before it.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (SignUpResult, error) {
	now := s.now()
	customer := Customer{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Admins:      []string{req.Username},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if customer.DisplayName == "" {
		customer.DisplayName = req.Name
	}
	if err := s.repo.Insert(ctx, customer); err != nil {
		return SignUpResult{}, err
	}
	var undo []func(context.Context) error
	undo = append(undo, func(ctx context.Context) error { return s.repo.Delete(ctx, customer.Name) })

	fail := func(step string, err error) (SignUpResult, error) {
		s.rollback(customer.Name, undo)
		return SignUpResult{}, fmt.Errorf("customers: sign up %s: %w", step, err)
	}

	policy := rbac.Policy{Customer: customer.Name, Name: rbac.AdminPolicyName, CreatedAt: now, UpdatedAt: now}
	for _, p := range s.catalog.Visible() {
		policy.AttachPermissions(string(p))
	}
	if err := s.policies.Insert(ctx, policy); err != nil {
		return fail("create admin policy", err)
	}
	undo = append(undo, func(ctx context.Context) error { return s.policies.Delete(ctx, customer.Name, policy.Name) })

	role := rbac.Role{Customer: customer.Name, Name: rbac.AdminRoleName, Policies: []string{policy.Name}, CreatedAt: now, UpdatedAt: now}
	if err := s.roles.CreateRole(ctx, role); err != nil {
		return fail("create admin role", err)
	}
	undo = append(undo, func(ctx context.Context) error { return s.roles.DeleteRole(ctx, customer.Name, role.Name) })

	if _, err := s.users.CreateUser(ctx, users.CreateUserRequest{
		CustomerID: customer.Name,
		Username:   req.Username,
		Password:   req.Password,
		Role:       role.Name,
	}); err != nil {
		return fail("create admin user", err)
	}

	s.record(ctx, req.Username, "signup", customer.Name)
	return SignUpResult{Customer: customer, Username: req.Username, Role: role.Name, Policy: policy.Name}, nil
}

// Describe returns one customer.
func (s *Service) Describe(ctx context.Context, name string) (Customer, error) {
	return s.repo.Get(ctx, name)
}

// List returns one page of every customer.
func (s *Service) List(ctx context.Context, limit int, cursor string) ([]Customer, string, error) {
	return s.repo.List(ctx, limit, cursor)
}

// Update changes customer attributes.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (Customer, error) {
	customer, err := s.repo.Get(ctx, req.CustomerID)
	if err != nil {
		return Customer{}, err
	}
	if req.DisplayName != nil {
		customer.DisplayName = *req.DisplayName
	}
	customer.UpdatedAt = s.now()
	if err := s.repo.Put(ctx, customer); err != nil {
		return Customer{}, err
	}
	s.record(ctx, shared.Actor(ctx), "update", customer.Name)
	return customer, nil
}

// Delete removes the customer and everything it owns. The record goes last so
// a failed purge can be retried.
func (s *Service) Delete(ctx context.Context, name string) error {
	if _, err := s.repo.Get(ctx, name); err != nil {
		return err
	}
	if err := s.repo.Purge(ctx, name, OwnedCollections); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	s.record(ctx, shared.Actor(ctx), "delete", name)
	return nil
}

func (s *Service) rollback(customer string, undo []func(context.Context) error) {
	// The request context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](ctx); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Error("sign up rollback", slog.String("customer", customer), slog.Any("error", err))
		}
	}
}

func (s *Service) record(ctx context.Context, actor, action, customer string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Customer: customer,
		Actor:    actor,
		Action:   action,
		Entity:   "customer",
		EntityID: customer,
	})
	if err != nil {
		s.logger.Error("record customer audit", slog.String("customer", customer), slog.Any("error", err))
	}
}
