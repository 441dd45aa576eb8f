package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/weisyn/proofhost/internal/core/prover/backend"
	"github.com/weisyn/proofhost/internal/core/prover/ledger"
	"github.com/weisyn/proofhost/internal/core/prover/request"
	"github.com/weisyn/proofhost/pkg/types"
)

// ============================================================================
//                            证明编排错误定义
// ============================================================================

var (
	// ErrUnknownBackend 请求的证明类型没有可用后端
	ErrUnknownBackend = backend.ErrUnknownBackend

	// ErrInvalidRequest 请求字段缺失或格式错误
	ErrInvalidRequest = request.ErrInvalidRequest

	// ErrTaskNotFound 没有对应的任务
	ErrTaskNotFound = ledger.ErrTaskNotFound

	// ErrAlreadyTerminal 任务已处于终态
	ErrAlreadyTerminal = errors.New("task already in terminal state")

	// ErrCancellationInProgress 任务正在取消
	ErrCancellationInProgress = errors.New("task cancellation already in progress")

	// ErrProofTimeout 证明生成超时
	ErrProofTimeout = errors.New("proof generation timed out")

	// ErrCancelled 计算已取消
	ErrCancelled = backend.ErrCancelled

	// ErrOrchestratorClosed 编排器已关闭
	ErrOrchestratorClosed = errors.New("orchestrator closed")

	// errStaleAttempt 完成结果属于已被替换的尝试
	errStaleAttempt = errors.New("stale attempt")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapAlreadyTerminalError 包装任务已终态错误
func WrapAlreadyTerminalError(fp types.Fingerprint, status types.TaskStatus) error {
	return fmt.Errorf("%w: fingerprint=%s, status=%s", ErrAlreadyTerminal, fp, status)
}

// WrapCancellationInProgressError 包装重复取消错误
func WrapCancellationInProgressError(fp types.Fingerprint) error {
	return fmt.Errorf("%w: fingerprint=%s", ErrCancellationInProgress, fp)
}

// WrapNotDispatchedError 任务已登记但尚未交给后端，没有可取消的计算
func WrapNotDispatchedError(fp types.Fingerprint) error {
	return fmt.Errorf("%w: fingerprint=%s, reason=not dispatched", ErrTaskNotFound, fp)
}

// WrapProofTimeoutError 包装证明超时错误
func WrapProofTimeoutError(timeout time.Duration) error {
	return fmt.Errorf("%w after %s", ErrProofTimeout, timeout)
}

// WrapTaskNotFoundError 包装任务不存在错误
func WrapTaskNotFoundError(fp types.Fingerprint) error {
	return fmt.Errorf("%w: fingerprint=%s", ErrTaskNotFound, fp)
}
