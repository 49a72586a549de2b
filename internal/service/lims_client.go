package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// limsClientInterface LIMS 客户端接口（用于测试和扩展）
type limsClientInterface interface {
	GetAnalyzedSamples(jobID string, since int64) ([]LIMSSampleResult, error)
}

// LIMSRequest LIMS API 请求
type LIMSRequest struct {
	APIKey string         `json:"apiKey"`
	Data   map[string]any `json:"data"`
}

// LIMSResponse LIMS API 响应
type LIMSResponse struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// LIMSSampleResult 实验室出具的单条采样分析结果
// 字段与实验室导出格式对齐；日期为 epoch 毫秒，缺项可能为空
type LIMSSampleResult struct {
	SampleID        string   `json:"sampleId"`
	RunID           string   `json:"runId"`
	PersonID        *string  `json:"personId"`
	MonitorWornBy   *string  `json:"monitorWornBy"`
	SampleType      string   `json:"sampleType"`
	Analyte         string   `json:"analyte"`
	StartTimeMillis int64    `json:"startTime"`
	DurationMinutes int      `json:"durationMinutes"`
	Concentration   *float64 `json:"concentration"`
	Units           string   `json:"units"`
	Method          *string  `json:"method"`
}

// LIMSClient 实验室 LIMS API 客户端
type LIMSClient struct {
	httpClient *resty.Client
	apiKey     string
	logger     *zap.Logger
}

// NewLIMSClient 创建 LIMS 客户端
func NewLIMSClient(baseURL, apiKey string, logger *zap.Logger) *LIMSClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second). // 批量结果下载可能较慢
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &LIMSClient{
		httpClient: client,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// GetAnalyzedSamples 拉取某个 job 自 since（epoch 毫秒）以来的分析结果
func (c *LIMSClient) GetAnalyzedSamples(jobID string, since int64) ([]LIMSSampleResult, error) {
	request := LIMSRequest{
		APIKey: c.apiKey,
		Data: map[string]any{
			"jobId": jobID,
			"since": since,
		},
	}

	c.logger.Info("Calling LIMS API: getAnalyzedSamples",
		zap.String("job_id", jobID),
		zap.Int64("since", since),
	)

	var response LIMSResponse
	resp, err := c.httpClient.R().
		SetBody(request).
		SetResult(&response).
		Post("/lims/getAnalyzedSamples")

	if err != nil {
		c.logger.Error("LIMS API call failed",
			zap.Error(err),
			zap.String("job_id", jobID),
		)
		return nil, fmt.Errorf("LIMS API call failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("LIMS API returned HTTP %d", resp.StatusCode())
	}
	if response.Status != 0 {
		return nil, fmt.Errorf("LIMS API error: status=%d msg=%s", response.Status, response.Msg)
	}

	var results []LIMSSampleResult
	if len(response.Data) > 0 {
		if err := json.Unmarshal(response.Data, &results); err != nil {
			return nil, fmt.Errorf("failed to parse LIMS response: %w", err)
		}
	}

	c.logger.Info("LIMS results downloaded",
		zap.String("job_id", jobID),
		zap.Int("count", len(results)),
	)
	return results, nil
}
