package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// 同步任务共享状态使用的键
const (
	NowPlayingLastStarted = "nowplaying_last_started"
	NowPlayingLastRun     = "nowplaying_last_run"
	ShortSyncLastRun      = "short_last_run"
	MediumSyncLastRun     = "medium_last_run"
	LongSyncLastRun       = "long_last_run"
	BackupLastRun         = "backup_last_run"
	BackupLastResult      = "backup_last_result"
	BackupLastOutput      = "backup_last_output"
)

const syncStateKeyPrefix = "sync_state:"

// SyncStateStore 基于Redis保存各级同步任务的时间戳等共享状态。
// 每次读取都直接访问Redis，调度器多次调用之间不做内存缓存。
type SyncStateStore struct {
	client *redis.Client
}

// NewSyncStateStore 创建同步状态存储
func NewSyncStateStore(client *redis.Client) *SyncStateStore {
	return &SyncStateStore{client: client}
}

func syncStateKey(key string) string {
	return syncStateKeyPrefix + key
}

// GetTime 读取时间戳，键不存在时返回0
func (s *SyncStateStore) GetTime(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Get(ctx, syncStateKey(key)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get sync state %q: %w", key, err)
	}

	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sync state value for %q: %w", key, err)
	}
	return ts, nil
}

// SetTime 写入时间戳
func (s *SyncStateStore) SetTime(ctx context.Context, key string, ts int64) error {
	if err := s.client.Set(ctx, syncStateKey(key), strconv.FormatInt(ts, 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to set sync state %q: %w", key, err)
	}
	return nil
}

// GetString 读取字符串状态，键不存在时返回空串
func (s *SyncStateStore) GetString(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, syncStateKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync state %q: %w", key, err)
	}
	return val, nil
}

// SetString 写入字符串状态
func (s *SyncStateStore) SetString(ctx context.Context, key, val string) error {
	if err := s.client.Set(ctx, syncStateKey(key), val, 0).Err(); err != nil {
		return fmt.Errorf("failed to set sync state %q: %w", key, err)
	}
	return nil
}
