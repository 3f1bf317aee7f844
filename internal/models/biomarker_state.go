package models

import "time"

// BiomarkerState 当前生物指标状态（由 Monitor 独占持有并发布）
// 由处理管线和干预响应回调修改，展示层只读
type BiomarkerState struct {
	CurrentHRV       float64   `json:"currentHrv"`       // 当前 HRV（RMSSD）
	LastHeartRate    float64   `json:"lastHeartRate"`    // 最近一次心率原始值
	CurrentAgitation float64   `json:"currentAgitation"` // 当前躁动分数（0-100）
	IsCritical       bool      `json:"isCritical"`       // 是否处于危急/干预状态
	TherapistMessage string    `json:"therapistMessage"` // 当前治疗师提示文本
	TherapistAudio   []byte    `json:"-"`                // 当前治疗师提示语音（WAV），不进入缓存
	UpdatedAt        time.Time `json:"updatedAt"`        // 最后更新时间
}
