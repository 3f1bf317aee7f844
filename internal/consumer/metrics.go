package consumer

import (
	"sync"
	"time"
)

// Metrics 消费者监控指标
type Metrics struct {
	mu sync.RWMutex

	// 采样处理统计
	SamplesProcessed int64 // 收到的采样总数
	SamplesSucceeded int64 // 成功投递的采样数
	SamplesSkipped   int64 // 跳过的采样数（危急状态下到达等）

	// 错误分类统计
	ErrorsParse     int64 // 消息解析错误
	ErrorsTimestamp int64 // 时间戳解析错误

	// 启动与最后处理时间
	StartTime       time.Time
	LastProcessTime time.Time
}

// GetSnapshot 获取指标快照（线程安全）
func (m *Metrics) GetSnapshot() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		SamplesProcessed: m.SamplesProcessed,
		SamplesSucceeded: m.SamplesSucceeded,
		SamplesSkipped:   m.SamplesSkipped,
		ErrorsParse:      m.ErrorsParse,
		ErrorsTimestamp:  m.ErrorsTimestamp,
		StartTime:        m.StartTime,
		LastProcessTime:  m.LastProcessTime,
	}
}

// IncrementProcessed 增加处理计数
func (m *Metrics) IncrementProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SamplesProcessed++
}

// IncrementSucceeded 增加成功计数
func (m *Metrics) IncrementSucceeded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SamplesSucceeded++
	m.LastProcessTime = time.Now()
}

// IncrementSkipped 增加跳过计数
func (m *Metrics) IncrementSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SamplesSkipped++
}

// IncrementParseError 增加解析错误计数
func (m *Metrics) IncrementParseError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorsParse++
}

// IncrementTimestampError 增加时间戳错误计数
func (m *Metrics) IncrementTimestampError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorsTimestamp++
}
