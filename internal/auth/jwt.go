package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/users"
)

// MinSecretLength is the shortest accepted HMAC secret.
const MinSecretLength = 32

var (
	// ErrInvalidToken indicates a token that fails parsing or verification.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrTokenRevoked indicates a token that was signed out.
	ErrTokenRevoked = errors.New("auth: token revoked")
)

// Claims are the JWT claims issued at sign in.
type Claims struct {
	Username string `json:"username"`
	Customer string `json:"customer"`
	Role     string `json:"role"`
	System   bool   `json:"system,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into the caller identity.
func (c *Claims) Identity() *rbac.Identity {
	return &rbac.Identity{Username: c.Username, Customer: c.Customer, Role: c.Role, IsSystem: c.System}
}

// Token is a signed access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// JWTManager handles JWT token creation and validation.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager creates a token manager signing with HS256.
func NewJWTManager(secret string, ttl time.Duration) (*JWTManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: jwt secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: jwt ttl must be positive")
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for user.
func (m *JWTManager) Issue(user users.User) (Token, error) {
	now := m.now().UTC()
	expires := now.Add(m.ttl)
	claims := &Claims{
		Username: user.Username,
		Customer: user.Customer,
		Role:     user.Role,
		System:   user.IsSystem,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires}, nil
}

// Parse verifies the signature and expiry of raw and returns its claims.
func (m *JWTManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
