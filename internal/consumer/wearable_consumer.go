package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqttcommon "biomarker-monitor/internal/common/mqtt"
	"biomarker-monitor/internal/models"

	"go.uber.org/zap"
)

// SampleProcessor 采样处理接口（由 monitor.Monitor 实现）
type SampleProcessor interface {
	ProcessUpdate(channel string, value float64, at time.Time)
}

// StateGate 投递门控（由 controller.Controller 实现）
// 危急状态下采样不投递给监护器
type StateGate interface {
	IsMonitoring() bool
}

// mqttClient 消费者依赖的 MQTT 客户端能力
type mqttClient interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// controlCommand 发给可穿戴桥接端的控制命令
type controlCommand struct {
	Command string `json:"command"`
}

// WearableConsumer 可穿戴采样 MQTT 消费者
//
// 订阅采样主题，按批解码后逐条投递给监护器；单条失败只记录并继续。
// 同时实现 controller.StreamController：危急态切换时通过控制主题
// 通知桥接端停流/停会话，并取消本地订阅
type WearableConsumer struct {
	mqttClient   mqttClient
	topic        string
	controlTopic string
	qos          byte
	processor    SampleProcessor
	gate         StateGate
	logger       *zap.Logger
	metrics      *Metrics
}

// NewWearableConsumer 创建可穿戴采样消费者
func NewWearableConsumer(
	client mqttClient,
	topic string,
	controlTopic string,
	qos byte,
	processor SampleProcessor,
	gate StateGate,
	logger *zap.Logger,
) *WearableConsumer {
	return &WearableConsumer{
		mqttClient:   client,
		topic:        topic,
		controlTopic: controlTopic,
		qos:          qos,
		processor:    processor,
		gate:         gate,
		logger:       logger,
		metrics:      &Metrics{StartTime: time.Now()},
	}
}

// SetStateGate 注入投递门控
//
// 消费者与控制器相互引用（门控 / 数据流控制），构造后注入打破环。
// 必须在 Start 之前调用
func (c *WearableConsumer) SetStateGate(gate StateGate) {
	c.gate = gate
}

// Metrics 指标快照
func (c *WearableConsumer) Metrics() Metrics {
	return c.metrics.GetSnapshot()
}

// Start 启动消费者并阻塞到上下文取消
func (c *WearableConsumer) Start(ctx context.Context) error {
	if c.topic == "" {
		return fmt.Errorf("wearable sample topic not configured")
	}

	if err := c.mqttClient.Subscribe(c.topic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to wearable topic: %w", err)
	}

	c.logger.Info("Wearable consumer started",
		zap.String("topic", c.topic),
	)

	<-ctx.Done()
	return nil
}

// Stop 停止消费者
func (c *WearableConsumer) Stop() error {
	if c.topic != "" {
		if err := c.mqttClient.Unsubscribe(c.topic); err != nil {
			c.logger.Error("Failed to unsubscribe", zap.Error(err))
			return err
		}
	}

	c.logger.Info("Wearable consumer stopped")
	return nil
}

// StopStreaming 停止可穿戴数据流（controller.StreamController）
// 取消采样订阅并通知桥接端；尽力而为
func (c *WearableConsumer) StopStreaming() error {
	if err := c.mqttClient.Unsubscribe(c.topic); err != nil {
		return fmt.Errorf("failed to unsubscribe wearable topic: %w", err)
	}
	return c.publishControl("stop_streaming")
}

// StopSession 停止运动会话（controller.StreamController）
func (c *WearableConsumer) StopSession() error {
	return c.publishControl("stop_session")
}

// ResumeStreaming 恢复采样订阅（回到监护态后由调用方触发）
func (c *WearableConsumer) ResumeStreaming() error {
	if err := c.mqttClient.Subscribe(c.topic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to resubscribe wearable topic: %w", err)
	}
	return c.publishControl("start_streaming")
}

// publishControl 向桥接端发布控制命令
func (c *WearableConsumer) publishControl(command string) error {
	if c.controlTopic == "" {
		return nil
	}

	payload, err := json.Marshal(controlCommand{Command: command})
	if err != nil {
		return fmt.Errorf("failed to marshal control command: %w", err)
	}

	if err := c.mqttClient.Publish(c.controlTopic, c.qos, false, payload); err != nil {
		return fmt.Errorf("failed to publish control command: %w", err)
	}

	c.logger.Info("Control command published",
		zap.String("command", command),
		zap.String("topic", c.controlTopic),
	)
	return nil
}

// handleMessage 处理一批可穿戴采样消息
func (c *WearableConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received wearable message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	// 消息格式：采样数组，每个元素为 {channel, value, timestamp}
	var samples []models.Sample
	if err := json.Unmarshal(payload, &samples); err != nil {
		c.metrics.IncrementParseError()
		c.logger.Error("Failed to unmarshal wearable message",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	for _, sample := range samples {
		c.processSample(&sample)
	}

	return nil
}

// processSample 处理单条采样
func (c *WearableConsumer) processSample(sample *models.Sample) {
	c.metrics.IncrementProcessed()

	// 危急状态下不投递：不做指标计算，也不上报
	if c.gate != nil && !c.gate.IsMonitoring() {
		c.metrics.IncrementSkipped()
		return
	}

	at, err := time.Parse(time.RFC3339, sample.Timestamp)
	if err != nil {
		c.metrics.IncrementTimestampError()
		c.logger.Warn("Failed to parse sample timestamp",
			zap.String("channel", sample.Channel),
			zap.String("timestamp", sample.Timestamp),
			zap.Error(err),
		)
		return
	}

	c.processor.ProcessUpdate(sample.Channel, sample.Value, at)
	c.metrics.IncrementSucceeded()
}
