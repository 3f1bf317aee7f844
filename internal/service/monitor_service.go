package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"biomarker-monitor/internal/biomarker"
	"biomarker-monitor/internal/common/mqtt"
	commonredis "biomarker-monitor/internal/common/redis"
	"biomarker-monitor/internal/config"
	"biomarker-monitor/internal/consumer"
	"biomarker-monitor/internal/controller"
	"biomarker-monitor/internal/gateway"
	"biomarker-monitor/internal/health"
	"biomarker-monitor/internal/models"
	"biomarker-monitor/internal/monitor"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MonitorService 生物指标监护服务（整合各层）
type MonitorService struct {
	config      *config.Config
	logger      *zap.Logger
	redisClient *redis.Client
	mqttClient  *mqtt.Client

	// 各层组件
	gatewayClient *gateway.Client
	monitor       *monitor.Monitor
	controller    *controller.Controller
	consumer      *consumer.WearableConsumer
	healthSource  *health.RedisSource
}

// bridgeEvent 桥接端上行事件
type bridgeEvent struct {
	Event string `json:"event"`
}

// NewMonitorService 创建监护服务
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. 连接 Redis
	redisClient := commonredis.NewRedisClient(&commonredis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := commonredis.Ping(ctx, redisClient); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 2. 连接 MQTT Broker
	mqttClient, err := mqtt.NewClient(&mqtt.Config{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		QoS:      cfg.MQTT.QoS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	// 3. 创建采集端客户端
	gatewayClient := gateway.NewClient(
		cfg.Collector.BaseURL,
		cfg.Collector.Timeout,
		cfg.Collector.RetryCount,
		logger,
	)

	subject := models.Subject{
		Name:  cfg.Subject.Name,
		Email: cfg.Subject.Email,
	}

	// 4. 创建监护器与实时缓存
	estimators := biomarker.NewEstimators(biomarker.Mode(cfg.Monitor.EstimatorMode))
	mon := monitor.NewMonitor(
		subject,
		estimators,
		cfg.Monitor.HeartRateBufferSize,
		cfg.Monitor.MotionBufferSize,
		gatewayClient,
		logger,
	)
	mon.SetRealtimePublisher(monitor.NewRealtimeCache(
		redisClient,
		cfg.Redis.RealtimeKeyPrefix,
		cfg.Redis.RealtimeTTL,
		cfg.Redis.MetricsStream,
		logger,
	))

	// 5. 创建消费者与音频桥接
	wearableConsumer := consumer.NewWearableConsumer(
		mqttClient,
		cfg.MQTT.Topic,
		cfg.MQTT.ControlTopic,
		cfg.MQTT.QoS,
		mon,
		nil,
		logger,
	)
	player := consumer.NewAudioPlayerBridge(mqttClient, cfg.MQTT.AudioOutTopic, cfg.MQTT.ControlTopic, cfg.MQTT.QoS, logger)
	recorder := consumer.NewAudioRecorderBridge(mqttClient, cfg.MQTT.AudioInTopic, cfg.MQTT.ControlTopic, cfg.MQTT.QoS, logger)

	// 6. 创建控制器并闭环
	ctrl := controller.NewController(
		subject,
		mon,
		gatewayClient,
		wearableConsumer,
		player,
		recorder,
		logger,
	)
	mon.SetVerdictHandler(ctrl.HandleVerdict)
	mon.SetComputeGate(ctrl.IsMonitoring)
	wearableConsumer.SetStateGate(ctrl)

	return &MonitorService{
		config:        cfg,
		logger:        logger,
		redisClient:   redisClient,
		mqttClient:    mqttClient,
		gatewayClient: gatewayClient,
		monitor:       mon,
		controller:    ctrl,
		consumer:      wearableConsumer,
		healthSource:  health.NewRedisSource(redisClient, cfg.Redis.RealtimeKeyPrefix, logger),
	}, nil
}

// Monitor 监护器访问器（展示层读取实时状态）
func (s *MonitorService) Monitor() *monitor.Monitor {
	return s.monitor
}

// Controller 控制器访问器
func (s *MonitorService) Controller() *controller.Controller {
	return s.controller
}

// Start 启动服务并阻塞到上下文取消
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting biomarker monitor service",
		zap.String("subject", s.config.Subject.Email),
		zap.String("estimator_mode", s.config.Monitor.EstimatorMode),
	)

	// 订阅桥接端事件（录音开始/结束、返回监护）
	if err := s.mqttClient.Subscribe(s.config.MQTT.EventTopic, s.config.MQTT.QoS, s.handleBridgeEvent); err != nil {
		return fmt.Errorf("failed to subscribe event topic: %w", err)
	}

	// 周期性睡眠/活动汇总上报
	if s.config.Monitor.HealthReportInterval > 0 {
		go s.runHealthReporter(ctx)
	}

	return s.consumer.Start(ctx)
}

// Stop 停止服务
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping biomarker monitor service")

	if err := s.consumer.Stop(); err != nil {
		s.logger.Error("Failed to stop consumer", zap.Error(err))
	}

	s.mqttClient.Disconnect()

	if err := commonredis.Close(s.redisClient); err != nil {
		s.logger.Error("Failed to close redis", zap.Error(err))
	}

	return nil
}

// handleBridgeEvent 处理桥接端事件，驱动评估会话
func (s *MonitorService) handleBridgeEvent(topic string, payload []byte) error {
	var event bridgeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal bridge event",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return fmt.Errorf("failed to unmarshal bridge event: %w", err)
	}

	ctx := context.Background()

	switch event.Event {
	case "answer_start":
		if err := s.controller.StartAnswer(); err != nil {
			s.logger.Warn("Failed to start answer recording", zap.Error(err))
		}

	case "answer_done":
		if err := s.controller.FinishAnswer(ctx); err != nil {
			s.logger.Warn("Failed to submit answer", zap.Error(err))
			return nil
		}
		// 服务端结束会话后恢复数据流
		if s.controller.IsMonitoring() {
			s.resumeStreaming()
		}

	case "return_to_monitoring":
		s.controller.ReturnToMonitoring()
		s.resumeStreaming()

	default:
		s.logger.Debug("Unknown bridge event ignored", zap.String("event", event.Event))
	}

	return nil
}

// resumeStreaming 恢复可穿戴数据流（控制器不自动恢复，由服务层补上）
func (s *MonitorService) resumeStreaming() {
	if err := s.consumer.ResumeStreaming(); err != nil {
		s.logger.Error("Failed to resume wearable streaming", zap.Error(err))
	}
}

// runHealthReporter 按配置间隔上报睡眠/活动汇总
func (s *MonitorService) runHealthReporter(ctx context.Context) {
	interval := s.config.Monitor.HealthReportInterval
	s.logger.Info("Health reporter started",
		zap.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Health reporter stopped")
			return
		case <-ticker.C:
			s.reportHealth(ctx)
		}
	}
}

// reportHealth 读取桥接端同步的健康数据并上报汇总
func (s *MonitorService) reportHealth(ctx context.Context) {
	email := s.config.Subject.Email

	// 1. 睡眠汇总
	samples, err := s.healthSource.SleepSamples(ctx, email)
	if err != nil {
		s.logger.Error("Failed to read sleep samples", zap.Error(err))
	} else if len(samples) > 0 {
		summary := health.SummarizeSleep(samples)
		report := gateway.SleepReport{
			UserName:          s.config.Subject.Name,
			UserEmail:         email,
			TotalSleepHours:   summary.TotalSleepHours,
			DeepSleepHours:    summary.DeepSleepHours,
			RemSleepHours:     summary.RemSleepHours,
			AwakeTime:         summary.AwakeHours,
			SleepQualityScore: summary.QualityScore,
		}
		if err := s.gatewayClient.SubmitSleepReport(ctx, report); err != nil {
			s.logger.Error("Failed to submit sleep report", zap.Error(err))
		}
	}

	// 2. 活动汇总
	totals, err := s.healthSource.ActivityTotals(ctx, email)
	if err != nil {
		s.logger.Error("Failed to read activity totals", zap.Error(err))
		return
	}
	if totals == nil {
		return
	}

	summary := health.SummarizeActivity(totals.Steps, totals.CaloriesBurned)
	report := gateway.ActivityReport{
		UserName:       s.config.Subject.Name,
		UserEmail:      email,
		Steps:          summary.Steps,
		CaloriesBurned: summary.CaloriesBurned,
		ActivityScore:  summary.Score,
	}
	if err := s.gatewayClient.SubmitActivityReport(ctx, report); err != nil {
		s.logger.Error("Failed to submit activity report", zap.Error(err))
	}
}
