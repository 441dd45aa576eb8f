// Package prover 定义证明任务编排的能力接口
//
// 📋 **组件关系**
//
//	API ──> Orchestrator ──> Ledger（任务台账，按指纹去重）
//	                    └──> BackendTable ──> Backend.Compute ──> Handle
//
// 编排器是台账与后端之间唯一的协调者：后端只负责计算并通过 Handle 报告结果，
// 状态迁移全部由编排器在台账上原子完成。
package prover

import (
	"context"

	"github.com/weisyn/proofhost/pkg/types"
)

// Handle 一次后端计算的句柄
//
// 结果恰好产生一次：Done 关闭后 Result 返回最终的证明或错误。
// Cancel 是协作式的，可以重复调用；后端确认取消后同样通过 Done 报告。
type Handle interface {
	Done() <-chan struct{}
	Result() (*types.Proof, error)
	Cancel()
}

// Backend 证明后端
type Backend interface {
	// Kind 后端对应的证明类型
	Kind() types.ProofType

	// Compute 启动计算并立即返回句柄，不得阻塞调用方
	Compute(ctx context.Context, req *types.ProofRequest) Handle
}

// BackendTable 证明类型到后端的分发表，启动时注册，之后只读
type BackendTable interface {
	Lookup(kind types.ProofType) (Backend, error)
	Kinds() []types.ProofType
}

// SubmitResult 提交结果
type SubmitResult struct {
	Fingerprint types.Fingerprint `json:"fingerprint"`
	Status      types.TaskStatus  `json:"status"`
	// 任务已成功时携带证明
	Proof *types.Proof `json:"proof,omitempty"`
	// 本次提交是否新登记（含重启）
	Registered bool `json:"-"`
}

// Orchestrator 证明任务编排器
type Orchestrator interface {
	// Submit 提交请求：新请求登记并派发；重复请求返回当前状态；
	// 已取消或失败的请求重新登记
	Submit(ctx context.Context, req *types.ProofRequest) (SubmitResult, error)

	// Status 查询请求对应任务的当前记录
	Status(req *types.ProofRequest) (types.TaskRecord, bool)

	// Await 等待任务进入终态或 ctx 结束
	Await(ctx context.Context, req *types.ProofRequest) (types.TaskRecord, error)

	// Cancel 请求取消计算中的任务
	Cancel(req *types.ProofRequest) error

	// Report 返回所有任务摘要，按登记时间排序
	Report() []types.TaskReport

	// Prune 删除所有终态任务，返回删除数量
	Prune() int
}
