// Package types provides HTTP response type definitions.
package types

import (
	prooftypes "github.com/weisyn/proofhost/pkg/types"
)

// 响应状态
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Response 统一响应格式
//
// 成功：{"status":"ok","data":...}
// 失败：{"status":"error","error":"<kind>","message":"..."}
type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Error   ErrorKind   `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// NewOKResponse 创建成功响应
func NewOKResponse(data interface{}) *Response {
	return &Response{Status: StatusOK, Data: data}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(kind ErrorKind, message string) *Response {
	return &Response{Status: StatusError, Error: kind, Message: message}
}

// ProofStatusData v2 提交返回的任务状态
type ProofStatusData struct {
	Status prooftypes.TaskStatus `json:"status"`
}

// ProofData v2 提交在任务已成功时返回的证明
type ProofData struct {
	Proof *prooftypes.Proof `json:"proof"`
}

// PruneData 清理结果
type PruneData struct {
	Removed int `json:"removed"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string                 `json:"status"` // healthy
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Timestamp string                 `json:"timestamp"`
	Backends  []prooftypes.ProofType `json:"backends"`
	Tasks     int                    `json:"tasks"`
}
