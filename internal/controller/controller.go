// Package controller 实现监护/危急双态状态机
//
// 采集端对上报指标作出危急判定后，控制器从监护态切换到危急态：
// 停止可穿戴数据流与运动会话（尽力而为），保存治疗师提示，
// 并接管一轮轮的语音评估会话。退出危急态只有两条路径：
// 用户显式返回监护，或评估端返回会话结束信号。无超时自动回退
package controller

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"sync/atomic"

	"biomarker-monitor/internal/gateway"
	"biomarker-monitor/internal/models"

	"go.uber.org/zap"
)

// State 控制器状态
type State int32

const (
	StateMonitoring State = iota
	StateCritical
)

// String 状态名称
func (s State) String() string {
	switch s {
	case StateMonitoring:
		return "monitoring"
	case StateCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// StreamController 可穿戴数据流与运动会话控制（外部 SDK 抽象）
type StreamController interface {
	StopStreaming() error
	StopSession() error
}

// AudioPlayer 治疗师提示语音播放（一个录放周期内由控制器独占）
type AudioPlayer interface {
	Play(wav []byte) error
	Stop()
}

// AudioRecorder 用户语音录制（WAV，单声道，16kHz）
type AudioRecorder interface {
	Start() error
	Stop() ([]byte, error)
}

// StateSink 危急状态发布接口（由 monitor.Monitor 实现）
type StateSink interface {
	SetCritical(question string, audio []byte)
	UpdatePrompt(question string, audio []byte)
	ClearCritical()
}

// AssessmentExchanger 语音评估交互接口（由 gateway.Client 实现）
type AssessmentExchanger interface {
	ExchangeAssessment(ctx context.Context, req gateway.AssessmentRequest) (*gateway.AssessmentResponse, error)
}

// Controller 危急状态控制器
//
// state 用原子值承载，监护器的计算门控可以无锁读取；
// 会话数据（轮次计数、历史）由互斥锁串行化，与判定回调在
// 同一逻辑队列上执行
type Controller struct {
	mu    sync.Mutex
	state atomic.Int32

	subject   models.Subject
	sink      StateSink
	exchanger AssessmentExchanger
	stream    StreamController
	player    AudioPlayer
	recorder  AudioRecorder
	logger    *zap.Logger

	// 会话轮次状态：num 与 history 必须原样回传服务端返回值
	num          int
	history      []gateway.Turn
	questionText string
	recording    bool
}

// NewController 创建控制器（初始为监护态）
func NewController(
	subject models.Subject,
	sink StateSink,
	exchanger AssessmentExchanger,
	stream StreamController,
	player AudioPlayer,
	recorder AudioRecorder,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		subject:   subject,
		sink:      sink,
		exchanger: exchanger,
		stream:    stream,
		player:    player,
		recorder:  recorder,
		logger:    logger,
	}
}

// State 当前状态（无锁读取，可用作计算门控）
func (c *Controller) State() State {
	return State(c.state.Load())
}

// IsMonitoring 是否处于监护态（供采样投递方与计算门控使用）
func (c *Controller) IsMonitoring() bool {
	return c.State() == StateMonitoring
}

// HandleVerdict 处理采集端判定（由监护器的上报回调串行调用）
//
// critical 为 true 时进入危急态：停止数据流与会话（失败仅记录，
// 状态机仍乐观推进），保存初始治疗师提示。critical 为 false 时无操作
func (c *Controller) HandleVerdict(verdict gateway.Verdict) {
	if !verdict.Critical {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateCritical {
		// 已处于危急态的迟到判定：不重置进行中的会话
		c.logger.Debug("Verdict received while already critical, ignored")
		return
	}

	c.logger.Info("Critical verdict received, entering intervention mode",
		zap.String("subject", c.subject.Email),
	)

	// 停止数据流与运动会话：尽力而为，失败不阻止状态切换
	if c.stream != nil {
		if err := c.stream.StopStreaming(); err != nil {
			c.logger.Warn("Failed to stop wearable streaming", zap.Error(err))
		}
		if err := c.stream.StopSession(); err != nil {
			c.logger.Warn("Failed to stop exercise session", zap.Error(err))
		}
	}

	// 重置会话轮次并保存初始提示
	c.num = 0
	c.history = nil
	c.questionText = verdict.Question
	c.sink.SetCritical(verdict.Question, nil)

	c.state.Store(int32(StateCritical))
}

// StartAnswer 开始录制用户语音回答
func (c *Controller) StartAnswer() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateCritical {
		return fmt.Errorf("cannot record answer outside critical state")
	}
	if c.recorder == nil {
		return fmt.Errorf("no audio recorder attached")
	}
	if c.recording {
		return fmt.Errorf("recording already in progress")
	}

	if err := c.recorder.Start(); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	c.recording = true
	return nil
}

// FinishAnswer 结束录制并提交当前轮次
func (c *Controller) FinishAnswer(ctx context.Context) error {
	c.mu.Lock()

	if !c.recording {
		c.mu.Unlock()
		return fmt.Errorf("no recording in progress")
	}

	audio, err := c.recorder.Stop()
	c.recording = false
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to stop recording: %w", err)
	}
	c.mu.Unlock()

	return c.SubmitAnswer(ctx, audio)
}

// SubmitAnswer 提交一轮语音回答并推进会话
//
// 请求携带上一次响应原样保存的 num/history；响应中的 num/history
// 同样原样保存供下一轮回传。end 为 true 时结束会话并回到监护态
func (c *Controller) SubmitAnswer(ctx context.Context, answerAudio []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateCritical {
		return fmt.Errorf("cannot submit answer outside critical state")
	}

	req := gateway.AssessmentRequest{
		Metadata: gateway.AssessmentMetadata{
			UserName:  c.subject.Name,
			UserEmail: c.subject.Email,
		},
		Num:          c.num,
		History:      c.history,
		QuestionText: c.questionText,
		AnswerAudio:  answerAudio,
	}

	resp, err := c.exchanger.ExchangeAssessment(ctx, req)
	if err != nil {
		// 交互失败不破坏会话状态，下一次提交重试同一轮
		return fmt.Errorf("assessment exchange failed: %w", err)
	}

	// 原样保存轮次计数与历史
	c.num = resp.Num
	c.history = resp.History

	if resp.End {
		c.logger.Info("Assessment conversation ended by server")
		c.endConversationLocked()
		return nil
	}

	// 解码下一个提问语音；解码失败只丢弃语音，文本照常推进
	var promptAudio []byte
	if resp.Question != "" {
		promptAudio, err = base64.StdEncoding.DecodeString(resp.Question)
		if err != nil {
			c.logger.Warn("Failed to decode question audio", zap.Error(err))
			promptAudio = nil
		}
	}

	c.questionText = resp.QuestionText

	// 新的提示语音替换旧的：先停止进行中的播放再接管
	if c.player != nil {
		c.player.Stop()
	}
	c.sink.UpdatePrompt(resp.QuestionText, promptAudio)
	if c.player != nil && len(promptAudio) > 0 {
		if err := c.player.Play(promptAudio); err != nil {
			c.logger.Warn("Failed to play question audio", zap.Error(err))
		}
	}

	return nil
}

// ReturnToMonitoring 用户显式返回监护态
func (c *Controller) ReturnToMonitoring() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateCritical {
		return
	}

	c.logger.Info("Returning to monitoring by user action")
	c.endConversationLocked()
}

// Turn 当前会话轮次（测试与展示层使用）
func (c *Controller) Turn() (int, []gateway.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	history := make([]gateway.Turn, len(c.history))
	copy(history, c.history)
	return c.num, history
}

// endConversationLocked 结束会话：释放音频资源，清除危急状态，
// 回到监护态。数据流的重启由调用方负责，控制器不自动恢复
// 调用方必须持锁
func (c *Controller) endConversationLocked() {
	if c.player != nil {
		c.player.Stop()
	}
	if c.recording && c.recorder != nil {
		// 丢弃未提交的录音
		if _, err := c.recorder.Stop(); err != nil {
			c.logger.Warn("Failed to release recorder", zap.Error(err))
		}
	}
	c.recording = false
	c.questionText = ""

	c.sink.ClearCritical()
	c.state.Store(int32(StateMonitoring))
}
