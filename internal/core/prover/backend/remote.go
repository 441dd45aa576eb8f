package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hashicorp/go-retryablehttp"

	proverconfig "github.com/weisyn/proofhost/internal/config/prover"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

// maxErrorBody 读取远程错误响应的最大字节数
const maxErrorBody = 4 << 10

// remoteProofRequest 发给远程证明服务的请求体
type remoteProofRequest struct {
	*types.ProofRequest
	Options json.RawMessage `json:"options,omitempty"`
}

// remoteProofResponse 远程证明服务的响应体
type remoteProofResponse struct {
	Proof hexutil.Bytes `json:"proof"`
	Input common.Hash   `json:"input"`
	Quote hexutil.Bytes `json:"quote,omitempty"`
}

// remoteErrorResponse 远程证明服务的错误响应
type remoteErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RemoteBackend 远程证明后端（sgx/sp1/risc0）
//
// 每次计算对应一个 POST {endpoint}/proof，失败的连接与5xx响应按配置重试；
// 取消句柄会中止正在进行的请求。
type RemoteBackend struct {
	kind     types.ProofType
	endpoint string
	client   *retryablehttp.Client
	logger   log.Logger
}

// NewRemoteBackend 创建远程后端
func NewRemoteBackend(kind types.ProofType, opts proverconfig.RemoteOptions, logger log.Logger) *RemoteBackend {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.HTTPClient.Timeout = opts.RequestTimeout
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if logger != nil {
		client.Logger = &leveledLogger{logger: logger.With("backend", string(kind))}
	} else {
		client.Logger = nil
	}

	return &RemoteBackend{
		kind:     kind,
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		client:   client,
		logger:   logger,
	}
}

// Kind 实现 prover.Backend
func (b *RemoteBackend) Kind() types.ProofType { return b.kind }

// Compute 实现 prover.Backend，请求在独立 goroutine 中发出
func (b *RemoteBackend) Compute(ctx context.Context, req *types.ProofRequest) prover.Handle {
	h, hctx := newHandle(ctx)
	reqCopy := *req

	go func() {
		if !h.begin() {
			return
		}
		proof, err := b.call(hctx, &reqCopy)
		if hctx.Err() != nil {
			h.finish(nil, context.Cause(hctx))
			return
		}
		h.finish(proof, err)
	}()
	return h
}

// call 发送一次证明请求（含重试）
func (b *RemoteBackend) call(ctx context.Context, req *types.ProofRequest) (*types.Proof, error) {
	body, err := json.Marshal(remoteProofRequest{ProofRequest: req, Options: req.BackendOptions()})
	if err != nil {
		return nil, fmt.Errorf("encode %s proof request: %w", b.kind, err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+"/proof", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s proof request: %w", b.kind, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s prover request failed: %w", b.kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, WrapRemoteError(resp.StatusCode, readErrorMessage(resp.Body))
	}

	var out remoteProofResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s proof response: %w", b.kind, err)
	}
	return &types.Proof{
		Proof:     out.Proof,
		Input:     out.Input,
		Quote:     out.Quote,
		ProofType: b.kind,
	}, nil
}

// readErrorMessage 提取错误响应中的消息
func readErrorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var e remoteErrorResponse
	if json.Unmarshal(raw, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

// leveledLogger 将 retryablehttp 日志接到项目日志
type leveledLogger struct {
	logger log.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.With(keysAndValues...).Error(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.With(keysAndValues...).Debug(msg)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.With(keysAndValues...).Debug(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.With(keysAndValues...).Warn(msg)
}

var (
	_ prover.Backend              = (*RemoteBackend)(nil)
	_ retryablehttp.LeveledLogger = (*leveledLogger)(nil)
)
