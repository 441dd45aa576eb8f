// Package testutil 提供测试辅助工具
//
// 🧪 **测试辅助工具包**
//
// Mock 对象均为手写实现，不依赖代码生成。
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

// ==================== 日志 ====================

// MockLogger 统一的日志Mock实现，所有方法均为空操作
type MockLogger struct{}

func (m *MockLogger) Debug(msg string)                          {}
func (m *MockLogger) Debugf(format string, args ...interface{}) {}
func (m *MockLogger) Info(msg string)                           {}
func (m *MockLogger) Infof(format string, args ...interface{})  {}
func (m *MockLogger) Warn(msg string)                           {}
func (m *MockLogger) Warnf(format string, args ...interface{})  {}
func (m *MockLogger) Error(msg string)                          {}
func (m *MockLogger) Errorf(format string, args ...interface{}) {}
func (m *MockLogger) Fatal(msg string)                          {}
func (m *MockLogger) Fatalf(format string, args ...interface{}) {}
func (m *MockLogger) With(args ...interface{}) log.Logger       { return m }
func (m *MockLogger) Sync() error                               { return nil }
func (m *MockLogger) GetZapLogger() *zap.Logger                 { return zap.NewNop() }

// BehavioralMockLogger 记录所有日志调用，用于验证日志行为
type BehavioralMockLogger struct {
	logs  []string
	mutex sync.Mutex
}

func (m *BehavioralMockLogger) record(level, format string, args ...interface{}) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	m.logs = append(m.logs, level+": "+msg)
}

func (m *BehavioralMockLogger) Debug(msg string) { m.record("DEBUG", "%s", msg) }
func (m *BehavioralMockLogger) Debugf(format string, a ...interface{}) {
	m.record("DEBUG", format, a...)
}
func (m *BehavioralMockLogger) Info(msg string)                       { m.record("INFO", "%s", msg) }
func (m *BehavioralMockLogger) Infof(format string, a ...interface{}) { m.record("INFO", format, a...) }
func (m *BehavioralMockLogger) Warn(msg string)                       { m.record("WARN", "%s", msg) }
func (m *BehavioralMockLogger) Warnf(format string, a ...interface{}) { m.record("WARN", format, a...) }
func (m *BehavioralMockLogger) Error(msg string)                      { m.record("ERROR", "%s", msg) }
func (m *BehavioralMockLogger) Errorf(format string, a ...interface{}) {
	m.record("ERROR", format, a...)
}
func (m *BehavioralMockLogger) Fatal(msg string) { m.record("FATAL", "%s", msg) }
func (m *BehavioralMockLogger) Fatalf(format string, a ...interface{}) {
	m.record("FATAL", format, a...)
}
func (m *BehavioralMockLogger) With(args ...interface{}) log.Logger { return m }
func (m *BehavioralMockLogger) Sync() error                         { return nil }
func (m *BehavioralMockLogger) GetZapLogger() *zap.Logger           { return zap.NewNop() }

// Logs 返回已记录日志的副本
func (m *BehavioralMockLogger) Logs() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.logs...)
}

// Contains 是否存在包含 substr 的日志
func (m *BehavioralMockLogger) Contains(substr string) bool {
	for _, line := range m.Logs() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// ==================== 事件总线 ====================

// MockEventBus 记录发布的事件，不做分发
type MockEventBus struct {
	mu        sync.Mutex
	events    []types.TaskStatusChangedEvent
	submitted []types.TaskSubmittedEvent
}

func (m *MockEventBus) Subscribe(event.EventType, interface{}) error            { return nil }
func (m *MockEventBus) SubscribeAsync(event.EventType, interface{}, bool) error { return nil }
func (m *MockEventBus) Unsubscribe(event.EventType, interface{}) error          { return nil }
func (m *MockEventBus) HasCallback(event.EventType) bool                        { return false }
func (m *MockEventBus) WaitAsync()                                              {}

// Publish 记录任务事件
func (m *MockEventBus) Publish(eventType event.EventType, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, arg := range args {
		switch e := arg.(type) {
		case types.TaskStatusChangedEvent:
			m.events = append(m.events, e)
		case types.TaskSubmittedEvent:
			m.submitted = append(m.submitted, e)
		}
	}
}

// Outcomes 返回指定指纹的提交结果序列
func (m *MockEventBus) Outcomes(fp types.Fingerprint) []types.SubmitOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.SubmitOutcome
	for _, e := range m.submitted {
		if e.Fingerprint == fp {
			out = append(out, e.Outcome)
		}
	}
	return out
}

// Transitions 返回指定指纹经历的目标状态序列
func (m *MockEventBus) Transitions(fp types.Fingerprint) []types.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.TaskStatus
	for _, e := range m.events {
		if e.Fingerprint == fp {
			out = append(out, e.To)
		}
	}
	return out
}

// ==================== 证明后端 ====================

// MockHandle 可由测试手动完成的计算句柄
type MockHandle struct {
	done      chan struct{}
	once      sync.Once
	mu        sync.Mutex
	proof     *types.Proof
	err       error
	cancelled bool
	// 为 true 时 Cancel 立即以 context.Canceled 完成句柄
	AutoAckCancel bool
}

// NewMockHandle 创建未完成的句柄
func NewMockHandle() *MockHandle {
	return &MockHandle{done: make(chan struct{})}
}

// Done 实现 prover.Handle
func (h *MockHandle) Done() <-chan struct{} { return h.done }

// Result 实现 prover.Handle
func (h *MockHandle) Result() (*types.Proof, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.proof, h.err
}

// Cancel 实现 prover.Handle
func (h *MockHandle) Cancel() {
	h.mu.Lock()
	h.cancelled = true
	autoAck := h.AutoAckCancel
	h.mu.Unlock()
	if autoAck {
		h.Complete(nil, context.Canceled)
	}
}

// Cancelled Cancel 是否被调用过
func (h *MockHandle) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// Complete 以给定结果完成句柄，只有第一次调用生效
func (h *MockHandle) Complete(proof *types.Proof, err error) {
	h.once.Do(func() {
		h.mu.Lock()
		h.proof, h.err = proof, err
		h.mu.Unlock()
		close(h.done)
	})
}

// MockBackend 记录每次计算并返回 MockHandle
type MockBackend struct {
	kind types.ProofType

	mu       sync.Mutex
	handles  []*MockHandle
	requests []*types.ProofRequest
	// 为 true 时新句柄的 Cancel 立即确认
	AutoAckCancel bool
}

// NewMockBackend 创建指定类型的后端
func NewMockBackend(kind types.ProofType) *MockBackend {
	return &MockBackend{kind: kind}
}

// Kind 实现 prover.Backend
func (b *MockBackend) Kind() types.ProofType { return b.kind }

// Compute 实现 prover.Backend
func (b *MockBackend) Compute(ctx context.Context, req *types.ProofRequest) prover.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := NewMockHandle()
	h.AutoAckCancel = b.AutoAckCancel
	b.handles = append(b.handles, h)
	b.requests = append(b.requests, req)
	return h
}

// Calls 已发起的计算次数
func (b *MockBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handles)
}

// Handle 返回第 i 次计算的句柄
func (b *MockBackend) Handle(i int) *MockHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handles[i]
}

// Last 返回最近一次计算的句柄
func (b *MockBackend) Last() *MockHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.handles) == 0 {
		return nil
	}
	return b.handles[len(b.handles)-1]
}

var (
	_ log.Logger     = (*MockLogger)(nil)
	_ log.Logger     = (*BehavioralMockLogger)(nil)
	_ event.EventBus = (*MockEventBus)(nil)
	_ prover.Handle  = (*MockHandle)(nil)
	_ prover.Backend = (*MockBackend)(nil)
)
