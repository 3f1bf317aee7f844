package biomarker

// Mode 估计器模式
//
// 原始监护程序中存在两套并行实现：主实现（simple，无时间门控的 RMSSD +
// 反转检测躁动分数）与旧实现（legacy，2 秒时间门控 RMSSD + 重力归一化躁动）。
// simple 为生产契约，legacy 作为可配置兼容模式保留
type Mode string

const (
	ModeSimple Mode = "simple"
	ModeLegacy Mode = "legacy"
)

// Estimators 按模式分派的估计器组合
type Estimators struct {
	mode Mode
}

// NewEstimators 创建估计器组合
func NewEstimators(mode Mode) *Estimators {
	if mode != ModeLegacy {
		mode = ModeSimple
	}
	return &Estimators{mode: mode}
}

// Mode 当前模式
func (e *Estimators) Mode() Mode {
	return e.mode
}

// HRV 按当前模式计算 HRV
func (e *Estimators) HRV(readings []Reading) float64 {
	if e.mode == ModeLegacy {
		return LegacyHRV(readings)
	}
	return HRV(readings)
}

// Agitation 按当前模式计算躁动分数
func (e *Estimators) Agitation(readings []Reading) float64 {
	if e.mode == ModeLegacy {
		return LegacyAgitation(readings)
	}
	return Agitation(readings)
}
