package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	FindUser(ctx context.Context, customer, username string) (User, error)
	CreateUser(ctx context.Context, user User) error
	SaveUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, customer, username string) error
	ListUsers(ctx context.Context, customer string, limit int, cursor string) ([]User, string, error)
}

// Auditor records mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo   RepositoryPort
	roles  rbac.RoleStore
	audit  Auditor
	logger *slog.Logger
	cost   int
	now    func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, roles rbac.RoleStore, audit Auditor, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:   repo,
		roles:  roles,
		audit:  audit,
		logger: logger,
		cost:   bcrypt.DefaultCost,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DescribeUser returns one user.
func (s *Service) DescribeUser(ctx context.Context, customer, username string) (Profile, error) {
	user, err := s.repo.FindUser(ctx, customer, username)
	if err != nil {
		return Profile{}, err
	}
	return user.Profile(), nil
}

// ListUsers returns one page of users.
func (s *Service) ListUsers(ctx context.Context, customer string, limit int, cursor string) ([]Profile, string, error) {
	users, next, err := s.repo.ListUsers(ctx, customer, limit, cursor)
	if err != nil {
		return nil, "", err
	}
	profiles := make([]Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, next, nil
}

// CreateUser hashes the password and stores the account. The role must exist.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (Profile, error) {
	if err := s.requireRole(ctx, req.CustomerID, req.Role); err != nil {
		return Profile{}, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return Profile{}, err
	}
	now := s.now()
	user := User{
		Customer:     req.CustomerID,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return Profile{}, err
	}
	s.record(ctx, "create", user, map[string]any{"role": user.Role})
	return user.Profile(), nil
}

// UpdateUser assigns a different role.
func (s *Service) UpdateUser(ctx context.Context, req UpdateUserRequest) (Profile, error) {
	user, err := s.repo.FindUser(ctx, req.CustomerID, req.Username)
	if err != nil {
		return Profile{}, err
	}
	if err := s.requireRole(ctx, req.CustomerID, req.Role); err != nil {
		return Profile{}, err
	}
	user.Role = req.Role
	user.UpdatedAt = s.now()
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return Profile{}, err
	}
	s.record(ctx, "update", user, map[string]any{"role": user.Role})
	return user.Profile(), nil
}

// ResetPassword replaces the stored password hash.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	user, err := s.repo.FindUser(ctx, req.CustomerID, req.Username)
	if err != nil {
		return err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return err
	}
	s.record(ctx, "reset_password", user, nil)
	return nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, customer, username string) error {
	if err := s.repo.DeleteUser(ctx, customer, username); err != nil {
		return err
	}
	s.record(ctx, "delete", User{Customer: customer, Username: username}, nil)
	return nil
}

// EnsureSystemUser creates the system account or refreshes its password.
func (s *Service) EnsureSystemUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("users: system credentials required")
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	now := s.now()
	user, err := s.repo.FindUser(ctx, SystemCustomer, username)
	switch {
	case errors.Is(err, ErrNotFound):
		user = User{Customer: SystemCustomer, Username: username, CreatedAt: now}
	case err != nil:
		return err
	}
	user.PasswordHash = hash
	user.IsSystem = true
	user.UpdatedAt = now
	return s.repo.SaveUser(ctx, user)
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password too long", httpx.ErrValidation)
		}
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) requireRole(ctx context.Context, customer, role string) error {
	found, err := s.roles.LookupRole(ctx, customer, role)
	if err != nil {
		return fmt.Errorf("users: resolve role %s: %w", role, err)
	}
	if found == nil {
		return fmt.Errorf("%w: unknown role: %s", httpx.ErrValidation, role)
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, user User, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Customer: user.Customer,
		Actor:    shared.Actor(ctx),
		Action:   action,
		Entity:   "user",
		EntityID: user.Username,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Error("record user audit", slog.String("username", user.Username), slog.Any("error", err))
	}
}
