package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rediscommon "biomarker-monitor/internal/common/redis"
	"biomarker-monitor/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RealtimeCache Redis 实时状态缓存（仪表盘读取路径）
//
// 每个计算周期后将已发布状态写入
// {prefix}{email}:realtime（JSON，带 TTL），并追加到指标输出流。
// 仅为瞬态缓存，持久化由采集端负责
type RealtimeCache struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
	stream      string
	logger      *zap.Logger
}

// NewRealtimeCache 创建实时缓存
func NewRealtimeCache(
	redisClient *redis.Client,
	keyPrefix string,
	ttlSeconds int,
	stream string,
	logger *zap.Logger,
) *RealtimeCache {
	return &RealtimeCache{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
		ttl:         time.Duration(ttlSeconds) * time.Second,
		stream:      stream,
		logger:      logger,
	}
}

// realtimeEntry 输出流中的指标条目
type realtimeEntry struct {
	UserName  string                `json:"userName"`
	UserEmail string                `json:"userEmail"`
	State     models.BiomarkerState `json:"state"`
}

// PublishRealtime 更新实时缓存并追加指标流
func (c *RealtimeCache) PublishRealtime(ctx context.Context, subject models.Subject, state models.BiomarkerState) error {
	key := fmt.Sprintf("%s%s:realtime", c.keyPrefix, subject.Email)

	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime state: %w", err)
	}

	if err := c.redisClient.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set realtime cache: %w", err)
	}

	if c.stream != "" {
		entry := realtimeEntry{
			UserName:  subject.Name,
			UserEmail: subject.Email,
			State:     state,
		}
		if _, err := rediscommon.PublishJSONToStream(ctx, c.redisClient, c.stream, entry); err != nil {
			return fmt.Errorf("failed to publish metrics stream: %w", err)
		}
	}

	c.logger.Debug("Updated realtime cache",
		zap.String("key", key),
		zap.Float64("hrv", state.CurrentHRV),
	)

	return nil
}
