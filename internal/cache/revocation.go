package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RevokedTokenPrefix is the key prefix for revoked token ids
	RevokedTokenPrefix = "auth:revoked:"
)

// RevocationStore records access tokens that were logged out before expiry.
type RevocationStore interface {
	// Revoke marks the token id as revoked for ttl. Once ttl passes the token
	// has expired anyway, so the entry can disappear.
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error

	// IsRevoked reports whether the token id was revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationStore implements RevocationStore with one expiring key per token.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRevocationStore creates a RevocationStore backed by Redis.
func NewRevocationStore(client *redis.Client) RevocationStore {
	return &RedisRevocationStore{client: client}
}

func revokedKey(tokenID string) string {
	return RevokedTokenPrefix + tokenID
}

// Revoke uses SET with expiry. A non-positive ttl is a no-op.
func (c *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		log.Printf("[Revocation] Revoke skipped: jti=%s already expired", tokenID)
		return nil
	}

	if err := c.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err(); err != nil {
		log.Printf("[Revocation] Revoke FAILED: jti=%s err=%v", tokenID, err)
		return fmt.Errorf("revoke token: %w", err)
	}

	log.Printf("[Revocation] Revoke OK: jti=%s ttl=%v", tokenID, ttl)
	return nil
}

// IsRevoked checks key existence.
func (c *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		log.Printf("[Revocation] IsRevoked FAILED: jti=%s err=%v", tokenID, err)
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
