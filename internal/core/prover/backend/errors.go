package backend

import (
	"errors"
	"fmt"
)

// ============================================================================
// 证明后端错误定义
// ============================================================================

var (
	// ErrUnknownBackend 请求的证明类型没有注册后端
	ErrUnknownBackend = errors.New("unknown proof backend")

	// ErrDuplicateBackend 同一证明类型重复注册
	ErrDuplicateBackend = errors.New("proof backend already registered")

	// ErrCancelled 计算已按请求取消
	ErrCancelled = errors.New("proof computation cancelled")

	// ErrQueueFull 原生后端等待队列已满
	ErrQueueFull = errors.New("native prover queue full")

	// ErrBackendClosed 后端已关闭
	ErrBackendClosed = errors.New("proof backend closed")

	// ErrPending 计算尚未结束
	ErrPending = errors.New("proof computation still pending")

	// ErrRemoteProver 远程证明服务返回错误
	ErrRemoteProver = errors.New("remote prover error")
)

// WrapRemoteError 包装远程证明服务错误
func WrapRemoteError(status int, message string) error {
	return fmt.Errorf("%w: status=%d, message=%s", ErrRemoteProver, status, message)
}
