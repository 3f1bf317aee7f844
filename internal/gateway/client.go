package gateway

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client 采集服务器 HTTP 客户端
//
// 承载四个上报通道：危急评估上报、睡眠/活动汇总上报（fire-and-forget）、
// 语音评估交互（multipart）。所有失败以 error 返回，由调用方记录，
// 不会阻塞本地处理管线
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient 创建采集服务器客户端
func NewClient(baseURL string, timeout time.Duration, retryCount int, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// SubmitEscalation 上报危急评估载荷并返回采集端判定
func (c *Client) SubmitEscalation(ctx context.Context, report EscalationReport) (Verdict, error) {
	var verdict Verdict

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(report).
		SetResult(&verdict).
		Post("/alert_status")

	if err != nil {
		return Verdict{}, fmt.Errorf("failed to submit escalation report: %w", err)
	}
	if resp.IsError() {
		return Verdict{}, fmt.Errorf("escalation report rejected: status %d", resp.StatusCode())
	}

	c.logger.Debug("Escalation report accepted",
		zap.String("report_id", report.ReportID),
		zap.Bool("critical", verdict.Critical),
	)

	return verdict, nil
}

// SubmitSleepReport 上报睡眠汇总（fire-and-forget 语义由调用方保证）
func (c *Client) SubmitSleepReport(ctx context.Context, report SleepReport) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(report).
		Post("/health-metrics/sleep")

	if err != nil {
		return fmt.Errorf("failed to submit sleep report: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sleep report rejected: status %d", resp.StatusCode())
	}

	return nil
}

// SubmitActivityReport 上报活动汇总
func (c *Client) SubmitActivityReport(ctx context.Context, report ActivityReport) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(report).
		Post("/health-metrics/activity")

	if err != nil {
		return fmt.Errorf("failed to submit activity report: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("activity report rejected: status %d", resp.StatusCode())
	}

	return nil
}

// ExchangeAssessment 语音评估交互（multipart form）
// 字段：metadata/history 为 JSON，num 为轮次计数，question_text 为当前提问，
// answer_audio 为用户语音回答（WAV 单声道 16kHz）
func (c *Client) ExchangeAssessment(ctx context.Context, req AssessmentRequest) (*AssessmentResponse, error) {
	metadataJSON, err := marshalJSONField(req.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assessment metadata: %w", err)
	}

	history := req.History
	if history == nil {
		history = []Turn{}
	}
	historyJSON, err := marshalJSONField(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assessment history: %w", err)
	}

	var result AssessmentResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"metadata":      metadataJSON,
			"num":           strconv.Itoa(req.Num),
			"history":       historyJSON,
			"question_text": req.QuestionText,
		}).
		SetMultipartField("answer_audio", "answer.wav", "audio/wav", bytes.NewReader(req.AnswerAudio)).
		SetResult(&result).
		Post("/assessment")

	if err != nil {
		return nil, fmt.Errorf("failed to exchange assessment turn: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("assessment exchange rejected: status %d", resp.StatusCode())
	}

	return &result, nil
}
