package biomarker

import "math"

// HRV 计算心率缓冲快照的 HRV（RMSSD，逐次差值的均方根）
// 少于 2 条读数（即不足一个逐差）时返回 0，不报错
func HRV(readings []Reading) float64 {
	if len(readings) < 2 {
		return 0
	}

	diffs := make([]float64, 0, len(readings)-1)
	for i := 1; i < len(readings); i++ {
		diffs = append(diffs, math.Abs(readings[i].Value-readings[i-1].Value))
	}

	return rmssd(diffs)
}

// rmssd 差值序列的均方根
func rmssd(diffs []float64) float64 {
	if len(diffs) == 0 {
		return 0
	}

	var sumSquares float64
	for _, d := range diffs {
		sumSquares += d * d
	}

	return math.Sqrt(sumSquares / float64(len(diffs)))
}
