package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// Revoker tracks logged-out tokens by their ID.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisDenylist stores revoked token IDs until the token would have expired anyway.
type RedisDenylist struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisDenylist(rdb *redis.Client) *RedisDenylist {
	return &RedisDenylist{rdb: rdb, now: time.Now}
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 || tokenID == "" {
		return nil
	}
	return d.rdb.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := d.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NoopRevoker is used when no Redis is configured; logout is then stateless.
type NoopRevoker struct{}

func (NoopRevoker) Revoke(context.Context, string, time.Time) error { return nil }

func (NoopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }
