package biomarker

import (
	"math"
	"time"
)

const (
	// maxPairGap 旧版 HRV 的逐差时间门控：间隔超过该值的相邻读数对被丢弃
	maxPairGap = 2 * time.Second
	// gravity 旧版躁动分数的重力归一化常数（m/s²）
	gravity = 9.81
)

// LegacyHRV 旧版 HRV 估计：带时间戳门控的 RMSSD
// 相邻读数时间间隔达到 2 秒及以上的差值对不参与计算；
// 全部被门控丢弃或读数不足时返回 0
func LegacyHRV(readings []Reading) float64 {
	if len(readings) < 2 {
		return 0
	}

	var diffs []float64
	for i := 1; i < len(readings); i++ {
		gap := readings[i].At.Sub(readings[i-1].At)
		if gap < maxPairGap {
			diffs = append(diffs, math.Abs(readings[i].Value-readings[i-1].Value))
		}
	}

	return rmssd(diffs)
}

// LegacyAgitation 旧版躁动估计：窗口内 |运动值|/9.81 的平均值
// 不做反转检测，直接按重力归一化后取均值，限制到 [0, 100]
func LegacyAgitation(readings []Reading) float64 {
	if len(readings) == 0 {
		return 0
	}

	var sum float64
	for _, r := range readings {
		sum += math.Abs(r.Value) / gravity
	}

	return clampScore(sum / float64(len(readings)))
}
