package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDenylistPrefix = "casedesk:revoked_token:"

// TokenDenylist stores revoked token ids in Redis so tokens can be rejected
// before their natural expiry.
type TokenDenylist struct {
	client *redis.Client
	prefix string
}

// NewTokenDenylist wires Redis storage for revoked token ids.
func NewTokenDenylist(client *redis.Client, prefix string) *TokenDenylist {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		trimmed = defaultDenylistPrefix
	}
	return &TokenDenylist{client: client, prefix: trimmed}
}

// Revoke marks the token id as revoked until its expiry.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if d == nil || d.client == nil {
		return fmt.Errorf("denylist not configured")
	}
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return fmt.Errorf("token id required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := d.client.Set(ctx, d.prefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id has been revoked.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if d == nil || d.client == nil {
		return false, fmt.Errorf("denylist not configured")
	}
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, nil
	}
	if err := d.client.Get(ctx, d.prefix+jti).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get revoked token: %w", err)
	}
	return true, nil
}
