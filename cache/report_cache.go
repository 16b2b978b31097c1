package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// GetDuplicateReportKey 根据电台ID生成重复曲目报告的Redis键
func GetDuplicateReportKey(stationID int64) string {
	return fmt.Sprintf("report:duplicates:%d", stationID)
}

// StoreDuplicateReport 缓存一个电台的重复曲目报告
func StoreDuplicateReport(ctx context.Context, stationID int64, report interface{}) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal duplicate report: %w", err)
	}

	// 报告由长周期任务定时重建，缓存有效期给两轮的冗余
	err = RedisClient.Set(ctx, GetDuplicateReportKey(stationID), data, 2*time.Hour).Err()
	if err != nil {
		return fmt.Errorf("failed to store duplicate report: %w", err)
	}
	return nil
}

// FetchDuplicateReport 读取缓存的重复曲目报告，未命中时返回 (false, nil)
func FetchDuplicateReport(ctx context.Context, stationID int64, out interface{}) (bool, error) {
	if RedisClient == nil {
		return false, fmt.Errorf("Redis client not initialized")
	}

	data, err := RedisClient.Get(ctx, GetDuplicateReportKey(stationID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch duplicate report: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal duplicate report: %w", err)
	}
	return true, nil
}
