// Package monitor 实现生物指标监护编排
//
// Monitor 持有两个采样缓冲（心率 / 运动），按通道路由采样，
// 心率缓冲填满时触发一次计算周期：对两个缓冲的一致快照分别计算
// HRV 与躁动分数，发布当前状态，并异步上报危急评估载荷。
// 上报失败只记录日志，不回滚本地状态
package monitor

import (
	"context"
	"sync"
	"time"

	"biomarker-monitor/internal/biomarker"
	"biomarker-monitor/internal/gateway"
	"biomarker-monitor/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reporter 危急评估上报接口（由 gateway.Client 实现）
type Reporter interface {
	SubmitEscalation(ctx context.Context, report gateway.EscalationReport) (gateway.Verdict, error)
}

// RealtimePublisher 实时状态发布接口（由 RealtimeCache 实现）
type RealtimePublisher interface {
	PublishRealtime(ctx context.Context, subject models.Subject, state models.BiomarkerState) error
}

// Monitor 生物指标监护器（一个监护会话一个实例）
//
// 所有状态变更串行化在内部互斥锁上：ProcessUpdate、判定回调对状态的
// 写入（经 SetCritical 等方法）都在同一把锁下执行，计算周期读到的
// 永远是两个缓冲的一致快照
type Monitor struct {
	mu sync.Mutex

	subject    models.Subject
	estimators *biomarker.Estimators

	hrBuffer     *biomarker.SampleBuffer
	motionBuffer *biomarker.SampleBuffer

	state models.BiomarkerState

	reporter  Reporter
	publisher RealtimePublisher
	onVerdict func(gateway.Verdict)
	gate      func() bool // 计算门控：返回 false 时不触发计算周期

	logger *zap.Logger
}

// NewMonitor 创建监护器
func NewMonitor(
	subject models.Subject,
	estimators *biomarker.Estimators,
	hrCapacity int,
	motionCapacity int,
	reporter Reporter,
	logger *zap.Logger,
) *Monitor {
	return &Monitor{
		subject:      subject,
		estimators:   estimators,
		hrBuffer:     biomarker.NewSampleBuffer(hrCapacity, biomarker.ModeFillClear),
		motionBuffer: biomarker.NewSampleBuffer(motionCapacity, biomarker.ModeSliding),
		reporter:     reporter,
		logger:       logger,
	}
}

// SetVerdictHandler 设置判定回调（采集端响应到达后调用）
func (m *Monitor) SetVerdictHandler(handler func(gateway.Verdict)) {
	m.onVerdict = handler
}

// SetRealtimePublisher 设置实时状态发布器
func (m *Monitor) SetRealtimePublisher(publisher RealtimePublisher) {
	m.publisher = publisher
}

// SetComputeGate 设置计算门控（危急状态下阻止计算与上报的后备防线）
func (m *Monitor) SetComputeGate(gate func() bool) {
	m.gate = gate
}

// ProcessUpdate 处理一条可穿戴采样
//
// HEART_RATE / RUNNING_HEART_RATE：立即发布原始心率，追加到心率缓冲，
// 填满时触发计算周期并清空心率缓冲（整体清空，不滑动）。
// MOTION：滑动窗口追加，不触发计算——躁动分数只在心率周期完成时
// 基于当时积累的运动数据机会性重算。
// 其他通道：无操作。任何内部错误都不会向调用方抛出
func (m *Monitor) ProcessUpdate(channel string, value float64, at time.Time) {
	switch channel {
	case models.ChannelHeartRate, models.ChannelRunningHeartRate:
		m.processHeartRate(value, at)
	case models.ChannelMotion:
		m.processMotion(value, at)
	default:
		// 未识别通道：静默忽略，与未知传感器类型前向兼容
	}
}

// processHeartRate 处理心率采样
func (m *Monitor) processHeartRate(value float64, at time.Time) {
	m.mu.Lock()

	// 原始心率不经缓冲延迟，立即发布
	m.state.LastHeartRate = value
	m.state.UpdatedAt = time.Now()

	m.hrBuffer.Append(value, at)

	if !m.hrBuffer.Full() {
		m.mu.Unlock()
		return
	}

	// 危急状态下不触发计算周期；丢弃已积累的心率数据
	if m.gate != nil && !m.gate() {
		m.hrBuffer.Clear()
		m.mu.Unlock()
		m.logger.Debug("Computation cycle suppressed by gate")
		return
	}

	// 计算周期：对两个缓冲取一致快照
	hrSnapshot := m.hrBuffer.Snapshot()
	motionSnapshot := m.motionBuffer.Snapshot()

	hrv := m.estimators.HRV(hrSnapshot)
	agitation := m.estimators.Agitation(motionSnapshot)

	m.state.CurrentHRV = hrv
	m.state.CurrentAgitation = agitation
	m.state.UpdatedAt = time.Now()

	// 心率缓冲整体清空；运动缓冲独立，不受本周期影响
	m.hrBuffer.Clear()

	report := gateway.EscalationReport{
		ReportID:  uuid.New().String(),
		HRV:       hrv,
		Agitation: agitation,
		UserName:  m.subject.Name,
		UserEmail: m.subject.Email,
	}
	published := m.snapshotStateLocked()

	m.mu.Unlock()

	m.logger.Info("Computation cycle completed",
		zap.Float64("hrv", hrv),
		zap.Float64("agitation", agitation),
		zap.Int("motion_samples", len(motionSnapshot)),
	)

	m.publishRealtime(published)

	// 上报不阻塞后续 ProcessUpdate 调用
	go m.dispatchReport(report)
}

// processMotion 处理运动采样
func (m *Monitor) processMotion(value float64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.motionBuffer.Append(value, at)
}

// dispatchReport 异步上报危急评估载荷并分发判定
// 序列化/网络/响应解析失败均记录日志后丢弃，本周期的本地效果已提交
func (m *Monitor) dispatchReport(report gateway.EscalationReport) {
	verdict, err := m.reporter.SubmitEscalation(context.Background(), report)
	if err != nil {
		m.logger.Warn("Failed to submit escalation report",
			zap.String("report_id", report.ReportID),
			zap.Error(err),
		)
		return
	}

	if m.onVerdict != nil {
		m.onVerdict(verdict)
	}
}

// publishRealtime 将已发布状态推送到实时缓存（尽力而为）
func (m *Monitor) publishRealtime(state models.BiomarkerState) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishRealtime(context.Background(), m.subject, state); err != nil {
		m.logger.Warn("Failed to publish realtime state", zap.Error(err))
	}
}

// SetCritical 进入危急状态并存储治疗师提示（由判定回调串行调用）
// 不修改 HRV / 躁动 / 心率字段
func (m *Monitor) SetCritical(question string, audio []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsCritical = true
	m.state.TherapistMessage = question
	m.state.TherapistAudio = audio
	m.state.UpdatedAt = time.Now()
}

// UpdatePrompt 更新危急状态下的治疗师提示（会话推进到下一轮时）
func (m *Monitor) UpdatePrompt(question string, audio []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.TherapistMessage = question
	m.state.TherapistAudio = audio
	m.state.UpdatedAt = time.Now()
}

// ClearCritical 退出危急状态并清除提示内容
func (m *Monitor) ClearCritical() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsCritical = false
	m.state.TherapistMessage = ""
	m.state.TherapistAudio = nil
	m.state.UpdatedAt = time.Now()
}

// State 返回当前已发布状态的副本（供展示层轮询）
func (m *Monitor) State() models.BiomarkerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotStateLocked()
}

// Subject 被监护对象身份
func (m *Monitor) Subject() models.Subject {
	return m.subject
}

// snapshotStateLocked 复制当前状态（调用方必须持锁）
func (m *Monitor) snapshotStateLocked() models.BiomarkerState {
	state := m.state
	if m.state.TherapistAudio != nil {
		state.TherapistAudio = make([]byte, len(m.state.TherapistAudio))
		copy(state.TherapistAudio, m.state.TherapistAudio)
	}
	return state
}
