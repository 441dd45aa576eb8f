// Package types provides HTTP error type definitions.
package types

import (
	"context"
	"errors"
	"net/http"

	"github.com/weisyn/proofhost/internal/core/prover/orchestrator"
)

// ErrorKind 错误类别，客户端按此做程序化处理
type ErrorKind string

// 错误类别常量
const (
	ErrorKindUnknownBackend         ErrorKind = "unknown_backend"
	ErrorKindInvalidRequest         ErrorKind = "invalid_request"
	ErrorKindTaskNotFound           ErrorKind = "task_not_found"
	ErrorKindAlreadyTerminal        ErrorKind = "already_terminal"
	ErrorKindCancellationInProgress ErrorKind = "cancellation_in_progress"
	ErrorKindProofFailed            ErrorKind = "proof_failed"
	ErrorKindTimeout                ErrorKind = "timeout"
	ErrorKindInternal               ErrorKind = "internal"
)

// ClassifyError 将编排错误映射为错误类别与HTTP状态码
func ClassifyError(err error) (ErrorKind, int) {
	switch {
	case errors.Is(err, orchestrator.ErrUnknownBackend):
		return ErrorKindUnknownBackend, http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrInvalidRequest):
		return ErrorKindInvalidRequest, http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrTaskNotFound):
		return ErrorKindTaskNotFound, http.StatusNotFound
	case errors.Is(err, orchestrator.ErrAlreadyTerminal):
		return ErrorKindAlreadyTerminal, http.StatusConflict
	case errors.Is(err, orchestrator.ErrCancellationInProgress):
		return ErrorKindCancellationInProgress, http.StatusConflict
	case errors.Is(err, orchestrator.ErrProofTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout, http.StatusGatewayTimeout
	case errors.Is(err, orchestrator.ErrOrchestratorClosed):
		return ErrorKindInternal, http.StatusServiceUnavailable
	default:
		return ErrorKindInternal, http.StatusInternalServerError
	}
}
