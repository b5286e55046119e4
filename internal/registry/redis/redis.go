package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// RedisRegistry stores every account as a hash, indexed by an id set and a lower-cased handle key.
//
//	<prefix>:kols              set of ids
//	<prefix>:kol:<id>          hash{handle_name,last_post_id,created_at,updated_at}
//	<prefix>:handle:<lower>    id
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

func NewRedisRegistry(ctx context.Context, url, prefix string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisRegistry{client: client, prefix: prefix}, nil
}

// Close closes the Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func (r *RedisRegistry) idsKey() string { return r.prefix + ":kols" }
func (r *RedisRegistry) accountKey(id string) string { return r.prefix + ":kol:" + id }
func (r *RedisRegistry) handleKey(handle string) string {
	return r.prefix + ":handle:" + strings.ToLower(handle)
}

// List implements Registry interface
func (r *RedisRegistry) List(ctx context.Context) ([]models.TrackedAccount, error) {
	ids, err := r.client.SMembers(ctx, r.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list kol ids: %w", err)
	}

	result := make([]models.TrackedAccount, 0, len(ids))
	for _, id := range ids {
		account, err := r.get(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	return result, nil
}

// Create implements Registry interface
func (r *RedisRegistry) Create(ctx context.Context, handle string) (*models.TrackedAccount, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("handle must not be empty")
	}

	id := uuid.NewString()
	claimed, err := r.client.SetNX(ctx, r.handleKey(handle), id, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim handle: %w", err)
	}
	if !claimed {
		existing, err := r.client.Get(ctx, r.handleKey(handle)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read handle index: %w", err)
		}
		return r.get(ctx, existing)
	}

	now := time.Now().UTC()
	account := models.TrackedAccount{ID: id, Handle: handle, CreatedAt: now, UpdatedAt: now}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.accountKey(id),
			"handle_name", handle,
			"last_post_id", "",
			"created_at", now.Format(time.RFC3339Nano),
			"updated_at", now.Format(time.RFC3339Nano),
		)
		pipe.SAdd(ctx, r.idsKey(), id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kol: %w", err)
	}

	return &account, nil
}

// Delete implements Registry interface
func (r *RedisRegistry) Delete(ctx context.Context, id string) (bool, error) {
	account, err := r.get(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.accountKey(id), r.handleKey(account.Handle))
		pipe.SRem(ctx, r.idsKey(), id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete kol: %w", err)
	}
	return true, nil
}

// UpdateCursor implements Registry interface
func (r *RedisRegistry) UpdateCursor(ctx context.Context, id, postID string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.accountKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check kol: %w", err)
	}
	if exists == 0 {
		return false, nil
	}

	err = r.client.HSet(ctx, r.accountKey(id),
		"last_post_id", postID,
		"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return false, fmt.Errorf("failed to update cursor: %w", err)
	}
	return true, nil
}

func (r *RedisRegistry) get(ctx context.Context, id string) (*models.TrackedAccount, error) {
	fields, err := r.client.HGetAll(ctx, r.accountKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load kol %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, models.ErrNotFound
	}

	account := &models.TrackedAccount{
		ID:             id,
		Handle:         fields["handle_name"],
		LastSeenPostID: fields["last_post_id"],
	}
	account.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	account.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])
	return account, nil
}
