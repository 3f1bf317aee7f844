package biomarker

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgitation_KnownScenario(t *testing.T) {
	// 运动序列 [0,1,0,1,0]：索引 1,2,3 均为方向反转，
	// 但索引 2 幅值为 0 未过阈值 → rapidChanges=2, totalMagnitude=2
	// changeRatio=2/3, avgMagnitude=1 → score = (2/3)*50 + 1*10 ≈ 43.33
	score := Agitation(readingsFromValues(0, 1, 0, 1, 0))
	assert.InDelta(t, 43.333333333333336, score, 1e-9)
}

func TestAgitation_InsufficientSamples(t *testing.T) {
	assert.Equal(t, 0.0, Agitation(nil))
	assert.Equal(t, 0.0, Agitation(readingsFromValues(1)))
	assert.Equal(t, 0.0, Agitation(readingsFromValues(1, -1)))
}

func TestAgitation_SmoothMotionScoresZero(t *testing.T) {
	// 单调运动没有方向反转
	assert.Equal(t, 0.0, Agitation(readingsFromValues(0, 1, 2, 3, 4, 5)))
}

func TestAgitation_SubThresholdReversalsIgnored(t *testing.T) {
	// 反转幅值均低于 0.5，不计入
	assert.Equal(t, 0.0, Agitation(readingsFromValues(0, 0.3, 0, 0.3, 0)))
}

func TestAgitation_MagnitudeCap(t *testing.T) {
	// 每个内部点都是过阈值反转且幅值远超 5.0：
	// changeRatio=1, avgMagnitude 封顶为 5 → 50 + 50 = 100
	score := Agitation(readingsFromValues(20, -20, 20, -20, 20))
	assert.Equal(t, 100.0, score)
}

func TestAgitation_BoundedForArbitraryInput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := 3 + rng.Intn(60)
		values := make([]float64, n)
		for i := range values {
			values[i] = (rng.Float64() - 0.5) * 1000
		}

		score := Agitation(readingsFromValues(values...))
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		assert.False(t, math.IsNaN(score))
	}
}

func TestLegacyAgitation_GravityNormalization(t *testing.T) {
	// |9.81|/9.81 = 1.0 每条读数
	score := LegacyAgitation(readingsFromValues(9.81, -9.81, 9.81))
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestLegacyAgitation_Clamped(t *testing.T) {
	score := LegacyAgitation(readingsFromValues(100000, -100000))
	assert.Equal(t, 100.0, score)

	assert.Equal(t, 0.0, LegacyAgitation(nil))
}

func TestEstimators_ModeDispatch(t *testing.T) {
	simple := NewEstimators(ModeSimple)
	legacy := NewEstimators(ModeLegacy)

	motion := readingsFromValues(0, 1, 0, 1, 0)
	assert.InDelta(t, 43.333333333333336, simple.Agitation(motion), 1e-9)
	// legacy：(|0|+|1|+|0|+|1|+|0|)/9.81 的均值 = 2/(9.81*5)
	assert.InDelta(t, 2.0/(9.81*5), legacy.Agitation(motion), 1e-9)

	// 未知模式回退到 simple
	fallback := NewEstimators(Mode("fancy"))
	assert.Equal(t, ModeSimple, fallback.Mode())
}
