// Package types provides event type definitions.
package types

// EventType 事件类型（事件总线上的主题名）
type EventType string

const (
	// EventTypeTaskStatusChanged 任务状态变更，负载为 TaskStatusChangedEvent
	EventTypeTaskStatusChanged EventType = "prover:task_status_changed"

	// EventTypeTaskSubmitted 收到提交，负载为 TaskSubmittedEvent
	EventTypeTaskSubmitted EventType = "prover:task_submitted"
)

// SubmitOutcome 一次提交的处理结果
type SubmitOutcome string

const (
	// SubmitOutcomeRegistered 新登记
	SubmitOutcomeRegistered SubmitOutcome = "registered"

	// SubmitOutcomeRestarted 已取消/失败（或按配置已成功）的任务重新登记
	SubmitOutcomeRestarted SubmitOutcome = "restarted"

	// SubmitOutcomeDuplicate 任务进行中，返回当前状态
	SubmitOutcomeDuplicate SubmitOutcome = "duplicate"

	// SubmitOutcomeCached 任务已成功，返回已有证明
	SubmitOutcomeCached SubmitOutcome = "cached"

	// SubmitOutcomeRejected 没有可用的后端
	SubmitOutcomeRejected SubmitOutcome = "rejected"
)

// TaskSubmittedEvent 提交事件
type TaskSubmittedEvent struct {
	Fingerprint Fingerprint
	ProofType   ProofType
	Outcome     SubmitOutcome
}
