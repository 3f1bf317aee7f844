package gateway

import "encoding/json"

// EscalationReport 危急评估上报载荷（触发采集端判定）
type EscalationReport struct {
	ReportID  string  `json:"reportId"` // 客户端生成的 UUID，供采集端去重
	HRV       float64 `json:"hrv"`
	Agitation float64 `json:"agitation"`
	UserName  string  `json:"userName"`
	UserEmail string  `json:"userEmail"`
}

// Verdict 采集端对上报指标的判定
// critical 为 true 时 question 携带初始治疗师提示文本
type Verdict struct {
	Critical bool   `json:"critical"`
	Question string `json:"question,omitempty"`
}

// Turn 会话中的一轮问答（服务端原样往返）
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AssessmentMetadata 会话元数据（被监护对象身份）
type AssessmentMetadata struct {
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

// AssessmentRequest 语音评估交互请求（multipart form）
// Num 与 History 必须原样回传上一次响应中的值
type AssessmentRequest struct {
	Metadata     AssessmentMetadata
	Num          int
	History      []Turn
	QuestionText string
	AnswerAudio  []byte // WAV，单声道，16kHz
}

// AssessmentResponse 语音评估交互响应
// End 为 true 表示会话结束，控制器应回到监护态
type AssessmentResponse struct {
	Num          int                `json:"num"`
	History      []Turn             `json:"history"`
	Question     string             `json:"question"` // base64 编码的提问语音
	QuestionText string             `json:"question_text"`
	End          bool               `json:"end"`
	Metadata     AssessmentMetadata `json:"metadata"`
}

// SleepReport 睡眠汇总上报载荷
type SleepReport struct {
	UserName          string  `json:"userName"`
	UserEmail         string  `json:"userEmail"`
	TotalSleepHours   float64 `json:"totalSleepHours"`
	DeepSleepHours    float64 `json:"deepSleepHours"`
	RemSleepHours     float64 `json:"remSleepHours"`
	AwakeTime         float64 `json:"awakeTime"`
	SleepQualityScore float64 `json:"sleepQualityScore"`
}

// ActivityReport 活动汇总上报载荷
type ActivityReport struct {
	UserName       string  `json:"userName"`
	UserEmail      string  `json:"userEmail"`
	Steps          float64 `json:"steps"`
	CaloriesBurned float64 `json:"caloriesBurned"`
	ActivityScore  float64 `json:"activityScore"`
}

// marshalJSONField multipart 表单中 JSON 字段的序列化
func marshalJSONField(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
