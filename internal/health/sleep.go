package health

import (
	"time"
)

// 睡眠质量评分参数
const (
	idealSleepHours  = 8.0  // 理想睡眠时长（小时）
	idealDeepPercent = 20.0 // 理想深睡占比（%）
	idealRemPercent  = 22.0 // 理想 REM 占比（%）
	durationWeight   = 0.4
	deepSleepWeight  = 0.2
	remSleepWeight   = 0.2
	efficiencyWeight = 0.2
)

// SleepStage 睡眠阶段
type SleepStage string

const (
	StageInBed  SleepStage = "IN_BED"
	StageAsleep SleepStage = "ASLEEP"
	StageAwake  SleepStage = "AWAKE"
	StageDeep   SleepStage = "ASLEEP_DEEP"
	StageREM    SleepStage = "ASLEEP_REM"
)

// SleepSample 一段连续的睡眠阶段记录
type SleepSample struct {
	Stage SleepStage `json:"stage"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
}

// Duration 记录时长（End 早于 Start 时为 0）
func (s SleepSample) Duration() time.Duration {
	d := s.End.Sub(s.Start)
	if d < 0 {
		return 0
	}
	return d
}

// SleepSummary 一晚睡眠的汇总结果
type SleepSummary struct {
	TotalSleepHours float64
	DeepSleepHours  float64
	RemSleepHours   float64
	AwakeHours      float64
	QualityScore    float64 // 0-100
}

// SummarizeSleep 按阶段汇总睡眠记录并计算质量评分
//
// 深睡与 REM 同时计入总睡眠时长；IN_BED 只表示在床不代表入睡，
// 不参与任何时长统计。无睡眠记录时评分为 0
func SummarizeSleep(samples []SleepSample) SleepSummary {
	var totalSleep, deepSleep, remSleep, awake time.Duration

	// 1. 按阶段累计时长
	for _, sample := range samples {
		d := sample.Duration()
		switch sample.Stage {
		case StageAsleep:
			totalSleep += d
		case StageDeep:
			totalSleep += d
			deepSleep += d
		case StageREM:
			totalSleep += d
			remSleep += d
		case StageAwake:
			awake += d
		}
	}

	summary := SleepSummary{
		TotalSleepHours: totalSleep.Hours(),
		DeepSleepHours:  deepSleep.Hours(),
		RemSleepHours:   remSleep.Hours(),
		AwakeHours:      awake.Hours(),
	}

	// 2. 计算质量评分（0-100）
	summary.QualityScore = sleepQualityScore(summary)
	return summary
}

// sleepQualityScore 睡眠质量加权评分
//
// 四个因子各自封顶 100 后加权：
//   - 时长（理想 8 小时，权重 0.4）
//   - 深睡占比（理想 20%，权重 0.2）
//   - REM 占比（理想 22%，权重 0.2）
//   - 睡眠效率 睡眠/(睡眠+清醒)（权重 0.2）
func sleepQualityScore(s SleepSummary) float64 {
	if s.TotalSleepHours <= 0 {
		return 0
	}

	durationScore := capScore(s.TotalSleepHours / idealSleepHours * 100)

	deepPercent := s.DeepSleepHours / s.TotalSleepHours * 100
	deepScore := capScore(deepPercent / idealDeepPercent * 100)

	remPercent := s.RemSleepHours / s.TotalSleepHours * 100
	remScore := capScore(remPercent / idealRemPercent * 100)

	efficiency := s.TotalSleepHours / (s.TotalSleepHours + s.AwakeHours) * 100
	efficiencyScore := capScore(efficiency)

	return durationScore*durationWeight +
		deepScore*deepSleepWeight +
		remScore*remSleepWeight +
		efficiencyScore*efficiencyWeight
}

// capScore 限制在 [0, 100]
func capScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
