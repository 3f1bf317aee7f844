package health

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ActivityTotals 桥接端写入的当日活动累计
type ActivityTotals struct {
	Steps          float64 `json:"steps"`
	CaloriesBurned float64 `json:"caloriesBurned"`
}

// RedisSource 从 Redis 读取桥接端上传的健康原始数据
//
// 平台桥接端（手表侧）把昨夜睡眠阶段记录与当日活动累计写入
// 固定键位，服务端按上报周期读取汇总。键不存在表示桥接端
// 尚未同步，跳过本轮上报
type RedisSource struct {
	redisClient *redis.Client
	keyPrefix   string
	logger      *zap.Logger
}

// NewRedisSource 创建健康数据源
func NewRedisSource(redisClient *redis.Client, keyPrefix string, logger *zap.Logger) *RedisSource {
	return &RedisSource{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
		logger:      logger,
	}
}

// SleepSamples 读取昨夜睡眠阶段记录；键不存在时返回空
func (s *RedisSource) SleepSamples(ctx context.Context, email string) ([]SleepSample, error) {
	key := fmt.Sprintf("%s%s:sleep:samples", s.keyPrefix, email)

	raw, err := s.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sleep samples: %w", err)
	}

	var samples []SleepSample
	if err := json.Unmarshal([]byte(raw), &samples); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sleep samples: %w", err)
	}
	return samples, nil
}

// ActivityTotals 读取当日活动累计；键不存在时返回 nil
func (s *RedisSource) ActivityTotals(ctx context.Context, email string) (*ActivityTotals, error) {
	key := fmt.Sprintf("%s%s:activity:today", s.keyPrefix, email)

	raw, err := s.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity totals: %w", err)
	}

	var totals ActivityTotals
	if err := json.Unmarshal([]byte(raw), &totals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity totals: %w", err)
	}
	return &totals, nil
}
