package backend

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

// 句柄执行阶段
const (
	statePending int32 = iota
	stateRunning
	stateAbandoned
)

// handle 后端计算句柄的通用实现
//
// 计算在派生的 ctx 上执行：Cancel 以 ErrCancelled 为原因取消 ctx，
// 上层超时则以其自身的原因取消。尚未开始执行的计算在 ctx 结束时立即完成，
// 不必等到出队。结果只写一次，写入后关闭 done。
type handle struct {
	done   chan struct{}
	once   sync.Once
	state  atomic.Int32
	cancel context.CancelCauseFunc

	proof *types.Proof
	err   error
}

func newHandle(parent context.Context) (*handle, context.Context) {
	ctx, cancel := context.WithCancelCause(parent)
	h := &handle{done: make(chan struct{}), cancel: cancel}
	context.AfterFunc(ctx, func() {
		if h.state.CompareAndSwap(statePending, stateAbandoned) {
			h.finish(nil, context.Cause(ctx))
		}
	})
	return h, ctx
}

// Done 实现 prover.Handle
func (h *handle) Done() <-chan struct{} { return h.done }

// Result 实现 prover.Handle；未结束时返回 ErrPending
func (h *handle) Result() (*types.Proof, error) {
	select {
	case <-h.done:
		return h.proof, h.err
	default:
		return nil, ErrPending
	}
}

// Cancel 实现 prover.Handle
func (h *handle) Cancel() {
	h.cancel(ErrCancelled)
}

// begin 标记计算开始；已被放弃时返回 false
func (h *handle) begin() bool {
	return h.state.CompareAndSwap(statePending, stateRunning)
}

// finish 写入结果，只有第一次调用生效
func (h *handle) finish(proof *types.Proof, err error) {
	h.once.Do(func() {
		h.proof, h.err = proof, err
		close(h.done)
		h.cancel(nil)
	})
}

var _ prover.Handle = (*handle)(nil)
