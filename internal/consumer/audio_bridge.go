package consumer

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// AudioPlayerBridge 经 MQTT 下发提问语音到桥接端播放
//
// 控制器持有的 AudioPlayer 实现：Play 将 WAV 原始字节发布到语音下发
// 主题，Stop 通过控制主题通知桥接端中断播放
type AudioPlayerBridge struct {
	mqttClient   mqttClient
	audioTopic   string
	controlTopic string
	qos          byte
	logger       *zap.Logger
}

// NewAudioPlayerBridge 创建语音播放桥接
func NewAudioPlayerBridge(client mqttClient, audioTopic, controlTopic string, qos byte, logger *zap.Logger) *AudioPlayerBridge {
	return &AudioPlayerBridge{
		mqttClient:   client,
		audioTopic:   audioTopic,
		controlTopic: controlTopic,
		qos:          qos,
		logger:       logger,
	}
}

// Play 下发一段提问语音（WAV，单声道，16kHz）
func (p *AudioPlayerBridge) Play(wav []byte) error {
	if err := p.mqttClient.Publish(p.audioTopic, p.qos, false, wav); err != nil {
		return fmt.Errorf("failed to publish question audio: %w", err)
	}

	p.logger.Debug("Question audio published",
		zap.String("topic", p.audioTopic),
		zap.Int("size", len(wav)),
	)
	return nil
}

// Stop 通知桥接端中断播放；尽力而为，失败只记录
func (p *AudioPlayerBridge) Stop() {
	payload := []byte(`{"command":"stop_playback"}`)
	if err := p.mqttClient.Publish(p.controlTopic, p.qos, false, payload); err != nil {
		p.logger.Warn("Failed to publish stop_playback", zap.Error(err))
	}
}

// AudioRecorderBridge 经 MQTT 收集桥接端录制的回答语音
//
// 控制器持有的 AudioRecorder 实现：Start 订阅语音上行主题并通知
// 桥接端开始录音，Stop 取消订阅、通知停止并返回期间收到的音频。
// 桥接端可以分片上行，按到达顺序拼接
type AudioRecorderBridge struct {
	mqttClient   mqttClient
	audioTopic   string
	controlTopic string
	qos          byte
	logger       *zap.Logger

	mu        sync.Mutex
	recording bool
	captured  []byte
}

// NewAudioRecorderBridge 创建语音录制桥接
func NewAudioRecorderBridge(client mqttClient, audioTopic, controlTopic string, qos byte, logger *zap.Logger) *AudioRecorderBridge {
	return &AudioRecorderBridge{
		mqttClient:   client,
		audioTopic:   audioTopic,
		controlTopic: controlTopic,
		qos:          qos,
		logger:       logger,
	}
}

// Start 开始收集回答语音
func (r *AudioRecorderBridge) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("recorder already started")
	}

	r.captured = nil
	if err := r.mqttClient.Subscribe(r.audioTopic, r.qos, r.handleAudioChunk); err != nil {
		return fmt.Errorf("failed to subscribe answer audio topic: %w", err)
	}
	r.recording = true

	payload := []byte(`{"command":"start_recording"}`)
	if err := r.mqttClient.Publish(r.controlTopic, r.qos, false, payload); err != nil {
		r.logger.Warn("Failed to publish start_recording", zap.Error(err))
	}
	return nil
}

// Stop 停止收集并返回录到的音频
func (r *AudioRecorderBridge) Stop() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, fmt.Errorf("recorder not started")
	}
	r.recording = false

	if err := r.mqttClient.Unsubscribe(r.audioTopic); err != nil {
		r.logger.Warn("Failed to unsubscribe answer audio topic", zap.Error(err))
	}

	payload := []byte(`{"command":"stop_recording"}`)
	if err := r.mqttClient.Publish(r.controlTopic, r.qos, false, payload); err != nil {
		r.logger.Warn("Failed to publish stop_recording", zap.Error(err))
	}

	captured := r.captured
	r.captured = nil
	if len(captured) == 0 {
		return nil, fmt.Errorf("no answer audio captured")
	}
	return captured, nil
}

// handleAudioChunk 收到一个音频分片
func (r *AudioRecorderBridge) handleAudioChunk(topic string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}
	r.captured = append(r.captured, payload...)
	return nil
}
