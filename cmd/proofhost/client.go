package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	apitypes "github.com/weisyn/proofhost/internal/api/http/types"
	"github.com/weisyn/proofhost/pkg/types"
)

// apiClient proofhost HTTP API 客户端
type apiClient struct {
	endpoint string
	client   *retryablehttp.Client
}

func newAPIClient(endpoint string, timeout time.Duration) *apiClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &apiClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
	}
}

// Report 获取任务报告
func (c *apiClient) Report(ctx context.Context) ([]types.TaskReport, error) {
	body, err := c.do(ctx, http.MethodGet, "/v2/proof/report")
	if err != nil {
		return nil, err
	}
	var reports []types.TaskReport
	if err := json.Unmarshal(body, &reports); err != nil {
		return nil, fmt.Errorf("解析任务报告失败: %w", err)
	}
	return reports, nil
}

// Prune 清理终态任务，返回删除数量
func (c *apiClient) Prune(ctx context.Context) (int, error) {
	body, err := c.do(ctx, http.MethodPost, "/v2/proof/prune")
	if err != nil {
		return 0, err
	}
	var resp struct {
		Status string             `json:"status"`
		Data   apitypes.PruneData `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("解析清理结果失败: %w", err)
	}
	return resp.Data.Removed, nil
}

func (c *apiClient) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.endpoint+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apitypes.Response
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s: %s", apiErr.Error, apiErr.Message)
		}
		return nil, fmt.Errorf("请求 %s 失败: status=%d", path, resp.StatusCode)
	}
	return body, nil
}
