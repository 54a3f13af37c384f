package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisDenylist keeps revoked token ids as expiring Redis keys.
type RedisDenylist struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisDenylist constructs a denylist storing keys under prefix.
func NewRedisDenylist(client redis.UniversalClient, prefix string) *RedisDenylist {
	if prefix == "" {
		prefix = "modular:revoked"
	}
	return &RedisDenylist{client: client, prefix: prefix, now: time.Now}
}

// Revoke implements Denylist. Tokens already past until need no entry.
func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	if jti == "" {
		return errors.New("auth: token id required")
	}
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

// IsRevoked implements Denylist.
func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check revocation: %w", err)
	}
	return n > 0, nil
}

func (d *RedisDenylist) key(jti string) string {
	return d.prefix + ":" + jti
}
