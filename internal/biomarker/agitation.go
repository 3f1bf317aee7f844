package biomarker

import "math"

const (
	// minReversalMagnitude 方向反转的最小幅值阈值（抑制噪声）
	minReversalMagnitude = 0.5
	// magnitudeCap 幅值项的上限（封顶后再乘权重）
	magnitudeCap = 5.0
	// changeRatioWeight 反转频率项权重
	changeRatioWeight = 50.0
	// magnitudeWeight 幅值项权重
	magnitudeWeight = 10.0
)

// Agitation 计算运动缓冲快照的躁动分数（0-100）
//
// 对每个内部点检测方向反转（前后差值异号）且幅值超过阈值的"快速变化"，
// 由反转频率和平均幅值加权合成分数。平滑/单调运动得 0 分，
// 抖动类运动（频繁反转且幅值大）得分高。
// 少于 3 条读数（即没有内部点）时返回 0，不报错
func Agitation(readings []Reading) float64 {
	if len(readings) < 3 {
		return 0
	}

	rapidChanges := 0
	totalMagnitude := 0.0

	// 遍历内部点，检测抖动模式
	for i := 1; i < len(readings)-1; i++ {
		prev := readings[i-1].Value
		current := readings[i].Value
		next := readings[i+1].Value

		prevDiff := current - prev
		nextDiff := next - current
		if prevDiff*nextDiff < 0 { // 方向反转
			magnitude := math.Abs(current)
			if magnitude > minReversalMagnitude {
				rapidChanges++
				totalMagnitude += magnitude
			}
		}
	}

	changeRatio := float64(rapidChanges) / float64(len(readings)-2)
	avgMagnitude := 0.0
	if rapidChanges > 0 {
		avgMagnitude = totalMagnitude / float64(rapidChanges)
	}

	score := changeRatio*changeRatioWeight + math.Min(avgMagnitude, magnitudeCap)*magnitudeWeight
	return clampScore(score)
}

// clampScore 将分数限制到 [0, 100]
func clampScore(score float64) float64 {
	return math.Min(100, math.Max(0, score))
}
