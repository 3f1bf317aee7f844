package health

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestSource(t *testing.T) (*miniredis.Miniredis, *RedisSource) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr, NewRedisSource(redisClient, "biomarker:subject:", zap.NewNop())
}

func TestRedisSource_SleepSamples(t *testing.T) {
	mr, source := setupTestSource(t)

	raw := `[
		{"stage":"ASLEEP","start":"2026-08-27T22:30:00Z","end":"2026-08-28T02:30:00Z"},
		{"stage":"ASLEEP_DEEP","start":"2026-08-28T02:30:00Z","end":"2026-08-28T04:00:00Z"}
	]`
	require.NoError(t, mr.Set("biomarker:subject:demo@example.com:sleep:samples", raw))

	samples, err := source.SleepSamples(context.Background(), "demo@example.com")
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, StageAsleep, samples[0].Stage)
	assert.Equal(t, StageDeep, samples[1].Stage)
	assert.InDelta(t, 1.5, samples[1].Duration().Hours(), 1e-9)
}

func TestRedisSource_SleepSamplesMissingKey(t *testing.T) {
	_, source := setupTestSource(t)

	samples, err := source.SleepSamples(context.Background(), "demo@example.com")
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestRedisSource_SleepSamplesCorruptPayload(t *testing.T) {
	mr, source := setupTestSource(t)
	require.NoError(t, mr.Set("biomarker:subject:demo@example.com:sleep:samples", "not json"))

	_, err := source.SleepSamples(context.Background(), "demo@example.com")
	require.Error(t, err)
}

func TestRedisSource_ActivityTotals(t *testing.T) {
	mr, source := setupTestSource(t)
	require.NoError(t, mr.Set("biomarker:subject:demo@example.com:activity:today", `{"steps":7500,"caloriesBurned":320}`))

	totals, err := source.ActivityTotals(context.Background(), "demo@example.com")
	require.NoError(t, err)
	require.NotNil(t, totals)
	assert.Equal(t, 7500.0, totals.Steps)
	assert.Equal(t, 320.0, totals.CaloriesBurned)
}

func TestRedisSource_ActivityTotalsMissingKey(t *testing.T) {
	_, source := setupTestSource(t)

	totals, err := source.ActivityTotals(context.Background(), "demo@example.com")
	require.NoError(t, err)
	assert.Nil(t, totals)
}
