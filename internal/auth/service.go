package auth

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/modular-admin/modular-admin/internal/shared"
	"github.com/modular-admin/modular-admin/internal/users"
)

// UserFinder loads stored accounts.
type UserFinder interface {
	FindUser(ctx context.Context, customer, username string) (users.User, error)
}

// dummyHash is compared against when the account is missing so sign-in
// timing does not reveal which usernames exist.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("modular-dummy-password"), bcrypt.DefaultCost)
	return hash
})

// Service wraps authentication business rules.
type Service struct {
	users    UserFinder
	tokens   *JWTManager
	denylist Denylist
}

// NewService constructs a new Service.
func NewService(users UserFinder, tokens *JWTManager, denylist Denylist) *Service {
	return &Service{users: users, tokens: tokens, denylist: denylist}
}

// SignIn validates credentials and issues a token. Every credential failure
// returns shared.ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, customer, username, password string) (Token, error) {
	user, err := s.users.FindUser(ctx, customer, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return Token{}, shared.ErrInvalidCredentials
		}
		return Token{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Token{}, shared.ErrInvalidCredentials
	}
	return s.tokens.Issue(user)
}

// SignOut revokes the token until its expiry.
func (s *Service) SignOut(ctx context.Context, raw string) error {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return err
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
