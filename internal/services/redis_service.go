package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shoplist-service/internal/database"
)

// RedisService groups the ephemeral state the app keeps in Redis: revoked
// token IDs, invitation tokens and online presence. Everything here has a
// TTL; Redis is never the source of truth for business data.
type RedisService struct {
	client *database.RedisClient
}

func NewRedisService(client *database.RedisClient) *RedisService {
	return &RedisService{client: client}
}

// =============================================================================
// Token Blacklist
// =============================================================================

// BlacklistToken marks a token ID as revoked until its natural expiry. A
// non-positive TTL means the token is already expired and nothing is stored.
func (r *RedisService) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	err := r.client.GetClient().Set(ctx, "token:blacklist:"+jti, "1", ttl).Err()
	if err != nil {
		slog.Error("Failed to blacklist token", "jti", jti, "error", err)
		return err
	}
	return nil
}

func (r *RedisService) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	_, err := r.client.GetClient().Get(ctx, "token:blacklist:"+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// =============================================================================
// Invitation Tokens
// =============================================================================

// SetInvitationToken maps an opaque invitation token to its invitation ID
// for the invitation's lifetime.
func (r *RedisService) SetInvitationToken(ctx context.Context, token, invitationID string, ttl time.Duration) error {
	return r.client.GetClient().Set(ctx, "invite:token:"+token, invitationID, ttl).Err()
}

func (r *RedisService) GetInvitationToken(ctx context.Context, token string) (string, error) {
	id, err := r.client.GetClient().Get(ctx, "invite:token:"+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvitationNotFound
	}
	return id, err
}

func (r *RedisService) DeleteInvitationToken(ctx context.Context, token string) error {
	return r.client.GetClient().Del(ctx, "invite:token:"+token).Err()
}

// =============================================================================
// User Presence
// =============================================================================

func (r *RedisService) SetUserOnline(ctx context.Context, userID string) error {
	pipe := r.client.GetClient().Pipeline()
	pipe.SAdd(ctx, "online_users", userID)
	pipe.HSet(ctx, fmt.Sprintf("user:%s:status", userID), map[string]interface{}{
		"status":    "online",
		"last_seen": time.Now().Unix(),
	})
	pipe.Expire(ctx, fmt.Sprintf("user:%s:status", userID), 5*time.Minute)

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("Failed to set user online", "userID", userID, "error", err)
	}
	return err
}

func (r *RedisService) SetUserOffline(ctx context.Context, userID string) error {
	pipe := r.client.GetClient().Pipeline()
	pipe.SRem(ctx, "online_users", userID)
	pipe.HSet(ctx, fmt.Sprintf("user:%s:status", userID), map[string]interface{}{
		"status":    "offline",
		"last_seen": time.Now().Unix(),
	})
	pipe.Expire(ctx, fmt.Sprintf("user:%s:status", userID), 24*time.Hour)

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("Failed to set user offline", "userID", userID, "error", err)
	}
	return err
}

func (r *RedisService) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	return r.client.GetClient().SIsMember(ctx, "online_users", userID).Result()
}

func (r *RedisService) GetOnlineUsers(ctx context.Context) ([]string, error) {
	return r.client.GetClient().SMembers(ctx, "online_users").Result()
}

// =============================================================================
// Rate Limiting
// =============================================================================

// CheckRateLimit implements a sliding window counter over a sorted set. It
// reports whether the request under the given key is allowed.
func (r *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).Unix()

	pipe := r.client.GetClient().Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, window)

	results, err := pipe.Exec(ctx)
	if err != nil {
		return false, err
	}

	count := results[1].(*redis.IntCmd).Val()
	return count < int64(limit), nil
}
