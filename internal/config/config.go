package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 生物指标监护服务配置
type Config struct {
	MQTT struct {
		Broker        string // MQTT Broker 地址
		ClientID      string
		Username      string
		Password      string
		Topic         string // 可穿戴采样主题，如 "wearable/+/samples"
		ControlTopic  string // 可穿戴桥接控制主题（停流/停会话命令）
		AudioOutTopic string // 提问语音下发主题
		AudioInTopic  string // 回答语音上行主题
		EventTopic    string // 桥接端事件主题（录音开始/结束、返回监护）
		QoS           byte
	}

	Redis struct {
		Addr     string
		Password string
		DB       int

		RealtimeKeyPrefix string // 实时状态缓存键前缀，如 "biomarker:subject:"
		RealtimeTTL       int    // 实时状态缓存 TTL（秒）
		MetricsStream     string // 指标输出流，如 "biomarker:metrics:stream"
	}

	Collector struct {
		BaseURL    string // 采集服务器地址
		Timeout    time.Duration
		RetryCount int
	}

	Subject struct {
		Name  string
		Email string
	}

	Monitor struct {
		EstimatorMode        string        // "simple" 或 "legacy"
		HeartRateBufferSize  int           // 心率缓冲容量（填满触发计算）
		MotionBufferSize     int           // 运动滑动窗口容量
		HealthReportInterval time.Duration // 睡眠/活动汇总上报间隔，0 表示关闭
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置（环境变量优先，带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "biomarker-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("WEARABLE_TOPIC", "wearable/+/samples")
	cfg.MQTT.ControlTopic = getEnv("WEARABLE_CONTROL_TOPIC", "wearable/control")
	cfg.MQTT.AudioOutTopic = getEnv("WEARABLE_AUDIO_OUT_TOPIC", "wearable/audio/question")
	cfg.MQTT.AudioInTopic = getEnv("WEARABLE_AUDIO_IN_TOPIC", "wearable/audio/answer")
	cfg.MQTT.EventTopic = getEnv("WEARABLE_EVENT_TOPIC", "wearable/events")
	cfg.MQTT.QoS = 1

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.RealtimeKeyPrefix = getEnv("REALTIME_KEY_PREFIX", "biomarker:subject:")
	cfg.Redis.RealtimeTTL = getEnvInt("REALTIME_TTL", 300)
	cfg.Redis.MetricsStream = getEnv("METRICS_STREAM", "biomarker:metrics:stream")

	cfg.Collector.BaseURL = getEnv("COLLECTOR_BASE_URL", "http://localhost:8080")
	cfg.Collector.Timeout = getEnvDuration("COLLECTOR_TIMEOUT", 30*time.Second)
	cfg.Collector.RetryCount = getEnvInt("COLLECTOR_RETRY_COUNT", 3)

	cfg.Subject.Name = getEnv("SUBJECT_NAME", "")
	cfg.Subject.Email = getEnv("SUBJECT_EMAIL", "")

	cfg.Monitor.EstimatorMode = getEnv("ESTIMATOR_MODE", "simple")
	cfg.Monitor.HeartRateBufferSize = getEnvInt("HR_BUFFER_SIZE", 5)
	cfg.Monitor.MotionBufferSize = getEnvInt("MOTION_BUFFER_SIZE", 60)
	cfg.Monitor.HealthReportInterval = getEnvDuration("HEALTH_REPORT_INTERVAL", 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate 校验配置有效性
func (c *Config) validate() error {
	if c.Subject.Email == "" {
		return fmt.Errorf("SUBJECT_EMAIL is required")
	}
	if c.Monitor.EstimatorMode != "simple" && c.Monitor.EstimatorMode != "legacy" {
		return fmt.Errorf("invalid estimator mode: %s", c.Monitor.EstimatorMode)
	}
	if c.Monitor.HeartRateBufferSize < 2 {
		return fmt.Errorf("heart rate buffer size must be at least 2, got %d", c.Monitor.HeartRateBufferSize)
	}
	if c.Monitor.MotionBufferSize < 3 {
		return fmt.Errorf("motion buffer size must be at least 3, got %d", c.Monitor.MotionBufferSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
