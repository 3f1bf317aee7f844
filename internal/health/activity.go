package health

// 每日活动目标
const (
	dailyStepGoal    = 10000.0 // 步数目标
	dailyCalorieGoal = 500.0   // 活动消耗目标（千卡）
)

// ActivitySummary 当日活动汇总结果
type ActivitySummary struct {
	Steps          float64
	CaloriesBurned float64
	Score          float64 // 0-100
}

// SummarizeActivity 按目标完成度计算活动评分
//
// 步数与消耗各自相对目标折算百分比并封顶 100，取两者均值
func SummarizeActivity(steps, caloriesBurned float64) ActivitySummary {
	stepScore := capScore(steps / dailyStepGoal * 100)
	calorieScore := capScore(caloriesBurned / dailyCalorieGoal * 100)

	return ActivitySummary{
		Steps:          steps,
		CaloriesBurned: caloriesBurned,
		Score:          (stepScore + calorieScore) / 2,
	}
}
