package models

// 可穿戴设备采样通道
// 未识别的通道会被静默忽略（与未知传感器类型保持前向兼容）
const (
	ChannelHeartRate        = "HEART_RATE"
	ChannelRunningHeartRate = "RUNNING_HEART_RATE"
	ChannelMotion           = "MOTION"
)

// Sample 可穿戴设备的单条采样数据
// 由外部数据流产生，产生后不可变
type Sample struct {
	Channel   string  `json:"channel"`   // 采样通道（HEART_RATE / RUNNING_HEART_RATE / MOTION）
	Value     float64 `json:"value"`     // 采样值
	Timestamp string  `json:"timestamp"` // ISO-8601 时间戳
}

// Subject 被监护对象身份（在一个监护会话内不可变）
type Subject struct {
	Name  string `json:"userName"`
	Email string `json:"userEmail"`
}
