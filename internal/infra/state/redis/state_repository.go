package redisstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"pixel-board/internal/repository"
)

// DefaultKeyPrefix namespaces every key the service writes.
const DefaultKeyPrefix = "pb:"

// RedisStateRepository implements repository.StateRepository on Redis.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository panics on a nil client. An empty prefix selects
// DefaultKeyPrefix.
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key helpers ---

// gridKey is the persisted grid record, named "dotGrid" per board.
func (r *RedisStateRepository) gridKey(boardID uint) string {
	return fmt.Sprintf("%sboard:%d:dotGrid", r.keyPrefix, boardID)
}

// workingKey holds the grid as of the last archive, so a restarted session
// resumes unsaved edits without touching the saved record.
func (r *RedisStateRepository) workingKey(boardID uint) string {
	return fmt.Sprintf("%sboard:%d:workingGrid", r.keyPrefix, boardID)
}

func (r *RedisStateRepository) versionKey(boardID uint) string {
	return fmt.Sprintf("%sboard:%d:version", r.keyPrefix, boardID)
}

func (r *RedisStateRepository) lastSnapshotKey(boardID uint) string {
	return fmt.Sprintf("%sboard:%d:last_snapshot", r.keyPrefix, boardID)
}

// --- Grid record ---

func (r *RedisStateRepository) LoadGrid(ctx context.Context, boardID uint) ([]byte, error) {
	key := r.gridKey(boardID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis: failed to load grid for board %d from %s: %w", boardID, key, err)
	}
	return data, nil
}

func (r *RedisStateRepository) SaveGrid(ctx context.Context, boardID uint, data []byte) error {
	key := r.gridKey(boardID)
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: failed to save grid for board %d on %s: %w", boardID, key, err)
	}
	return nil
}

func (r *RedisStateRepository) DeleteGrid(ctx context.Context, boardID uint) error {
	if err := r.client.Del(ctx, r.gridKey(boardID), r.workingKey(boardID)).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete grid for board %d: %w", boardID, err)
	}
	return nil
}

func (r *RedisStateRepository) LoadWorkingGrid(ctx context.Context, boardID uint) ([]byte, error) {
	key := r.workingKey(boardID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis: failed to load working grid for board %d from %s: %w", boardID, key, err)
	}
	return data, nil
}

func (r *RedisStateRepository) SaveWorkingGrid(ctx context.Context, boardID uint, data []byte) error {
	key := r.workingKey(boardID)
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: failed to save working grid for board %d on %s: %w", boardID, key, err)
	}
	return nil
}

// --- Versioning ---

func (r *RedisStateRepository) GetCurrentVersion(ctx context.Context, boardID uint) (uint, error) {
	key := r.versionKey(boardID)
	versionStr, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis: failed to get current version for board %d from %s: %w", boardID, key, err)
	}
	version, err := strconv.ParseUint(versionStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: failed to parse version '%s' for board %d from %s: %w", versionStr, boardID, key, err)
	}
	return uint(version), nil
}

func (r *RedisStateRepository) IncrementVersion(ctx context.Context, boardID uint) (uint, error) {
	key := r.versionKey(boardID)
	v, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: failed to increment version for board %d on key %s: %w", boardID, key, err)
	}
	return uint(v), nil
}

func (r *RedisStateRepository) CleanupBoardState(ctx context.Context, boardID uint) error {
	keys := []string{r.gridKey(boardID), r.workingKey(boardID), r.versionKey(boardID), r.lastSnapshotKey(boardID)}
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("redis: failed to clean up board %d: %w", boardID, err)
	}
	logrus.WithFields(logrus.Fields{"board_id": boardID, "keys_deleted": n}).Debug("Board state cleaned up")
	return nil
}

// --- Rate limiting ---

func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, duration time.Duration) (bool, error) {
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, duration)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: pipeline failed for rate limit check on key %s: %w", key, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to get incr result for rate limit on key %s: %w", key, err)
	}
	return count > int64(limit), nil
}

// --- Archive worker state ---

func (r *RedisStateRepository) GetLastSnapshotTime(ctx context.Context, boardID uint) (time.Time, error) {
	key := r.lastSnapshotKey(boardID)
	s, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("redis: failed to get last snapshot time for board %d: %w", boardID, err)
	}
	nanos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("redis: failed to parse last snapshot time '%s' for board %d: %w", s, boardID, err)
	}
	return time.Unix(0, nanos), nil
}

func (r *RedisStateRepository) SetLastSnapshotTime(ctx context.Context, boardID uint, timestamp time.Time, ttl time.Duration) error {
	key := r.lastSnapshotKey(boardID)
	if err := r.client.Set(ctx, key, timestamp.UnixNano(), ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set last snapshot time for board %d: %w", boardID, err)
	}
	return nil
}
