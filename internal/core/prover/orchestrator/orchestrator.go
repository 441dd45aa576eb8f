// Package orchestrator 实现证明任务编排：去重登记、派发、完成、取消与清理
package orchestrator

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/proofhost/internal/core/prover/fingerprint"
	"github.com/weisyn/proofhost/internal/core/prover/ledger"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

// ============================================================================
// 证明任务编排器
// ============================================================================
//
// 🎯 **核心职责**：
// - 以请求指纹在台账中去重，同一请求同时至多一个计算
// - 新任务交给后端后立即返回，由 watcher goroutine 等待结果
// - 所有状态迁移在台账的单键原子更新中完成，并发布状态变更事件
//
// 📋 **状态机**：
//
//	Registered ──> WorkInProgress ──> Success | Failed
//	                     └──> CancellationInProgress ──> Cancelled
//
// ⚠️ **注意**：
// - 每次登记生成新的 attempt，迟到的旧尝试结果一律丢弃
// - 计算上下文独立于提交请求的上下文，提交方断开不影响计算
//
// ============================================================================

// defaultPollInterval Await 的轮询间隔
const defaultPollInterval = 50 * time.Millisecond

// Options 编排器选项
type Options struct {
	// 单个证明超时，0 表示不限制
	ProofTimeout time.Duration

	// 对已成功任务的重复提交重新计算
	RestartSucceeded bool

	// Await 轮询间隔
	PollInterval time.Duration
}

// Orchestrator 证明任务编排器
type Orchestrator struct {
	ledger   *ledger.Ledger
	backends prover.BackendTable
	events   event.EventBus
	logger   log.Logger
	opts     Options

	now        func() time.Time
	newAttempt func() string

	// 计算上下文的根，Close 时取消
	baseCtx    context.Context
	baseCancel context.CancelFunc

	// 保护 closed 与 watchers.Add
	mu       sync.RWMutex
	closed   bool
	watchers sync.WaitGroup
}

// New 创建编排器
func New(l *ledger.Ledger, backends prover.BackendTable, events event.EventBus, logger log.Logger, opts Options) *Orchestrator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Orchestrator{
		ledger:     l,
		backends:   backends,
		events:     events,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
		newAttempt: uuid.NewString,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
}

// Submit 实现 prover.Orchestrator
//
// ctx 只约束提交本身；计算的生命周期由编排器管理。
func (o *Orchestrator) Submit(ctx context.Context, req *types.ProofRequest) (prover.SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return prover.SubmitResult{}, err
	}

	fp := fingerprint.Build(req)
	b, err := o.backends.Lookup(req.ProofType)
	if err != nil {
		o.publishSubmitted(fp, req.ProofType, types.SubmitOutcomeRejected)
		return prover.SubmitResult{Fingerprint: fp}, err
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return prover.SubmitResult{Fingerprint: fp}, ErrOrchestratorClosed
	}

	var previous types.TaskStatus
	for {
		rec := types.TaskRecord{
			Fingerprint: fp,
			Attempt:     o.newAttempt(),
			ProofType:   req.ProofType,
			BlockNumber: req.BlockNumber,
			Network:     req.Network,
			Status:      types.TaskStatusRegistered,
		}
		inserted, existing := o.ledger.InsertIfAbsent(rec)
		if inserted {
			outcome := types.SubmitOutcomeRegistered
			if previous != "" {
				outcome = types.SubmitOutcomeRestarted
			}
			o.publishSubmitted(fp, req.ProofType, outcome)
			o.publishTransition(existing, previous)
			o.dispatch(b, req, existing)
			return prover.SubmitResult{Fingerprint: fp, Status: types.TaskStatusRegistered, Registered: true}, nil
		}

		switch {
		case !existing.Status.IsTerminal():
			o.publishSubmitted(fp, req.ProofType, types.SubmitOutcomeDuplicate)
			return prover.SubmitResult{Fingerprint: fp, Status: existing.Status}, nil

		case existing.Status == types.TaskStatusSuccess && !o.opts.RestartSucceeded:
			o.publishSubmitted(fp, req.ProofType, types.SubmitOutcomeCached)
			return prover.SubmitResult{Fingerprint: fp, Status: existing.Status, Proof: existing.Proof}, nil
		}

		// 终态任务重新登记：只删除刚才看到的那次尝试，被他人抢先时重新判断
		if _, removed := o.ledger.RemoveIf(fp, func(r types.TaskRecord) bool {
			return r.Attempt == existing.Attempt
		}); removed {
			previous = existing.Status
			o.logger.Infof("重新登记已结束的任务: fingerprint=%s, previous=%s", fp, existing.Status)
		}
	}
}

// dispatch 将已登记的任务交给后端并启动 watcher
//
// 调用方持有 o.mu 读锁。
func (o *Orchestrator) dispatch(b prover.Backend, req *types.ProofRequest, rec types.TaskRecord) {
	ctx, cancel := o.computeContext()
	h := b.Compute(ctx, req)

	updated, err := o.ledger.Attach(rec.Fingerprint, h, func(r *types.TaskRecord) error {
		if r.Attempt != rec.Attempt || r.Status != types.TaskStatusRegistered {
			return errStaleAttempt
		}
		r.Status = types.TaskStatusWorkInProgress
		return nil
	})
	if err != nil {
		o.logger.Warnf("派发任务失败，放弃本次计算: fingerprint=%s, attempt=%s, err=%v",
			rec.Fingerprint, rec.Attempt, err)
		h.Cancel()
		cancel()
		return
	}
	o.publishTransition(updated, types.TaskStatusRegistered)

	o.watchers.Add(1)
	go o.watch(rec.Fingerprint, rec.Attempt, h, cancel)
}

// computeContext 单个计算的上下文，带超时时以 ErrProofTimeout 为原因
func (o *Orchestrator) computeContext() (context.Context, context.CancelFunc) {
	if o.opts.ProofTimeout <= 0 {
		return context.WithCancel(o.baseCtx)
	}
	return context.WithTimeoutCause(o.baseCtx, o.opts.ProofTimeout, WrapProofTimeoutError(o.opts.ProofTimeout))
}

// watch 等待句柄结束并应用完成迁移
func (o *Orchestrator) watch(fp types.Fingerprint, attempt string, h prover.Handle, cancel context.CancelFunc) {
	defer o.watchers.Done()
	defer cancel()

	<-h.Done()
	proof, err := h.Result()
	o.complete(fp, attempt, proof, err)
}

// complete 完成迁移，每个句柄只执行一次
func (o *Orchestrator) complete(fp types.Fingerprint, attempt string, proof *types.Proof, cause error) {
	var from types.TaskStatus
	rec, err := o.ledger.Update(fp, func(r *types.TaskRecord) error {
		if r.Attempt != attempt {
			return errStaleAttempt
		}
		from = r.Status

		switch r.Status {
		case types.TaskStatusWorkInProgress:
			switch {
			case cause == nil && proof != nil:
				r.Status = types.TaskStatusSuccess
				r.Proof = proof
				r.Error = ""
			case cause == nil:
				r.Status = types.TaskStatusFailed
				r.Error = "backend returned no proof"
			default:
				r.Status = types.TaskStatusFailed
				r.Error = cause.Error()
			}
		case types.TaskStatusCancellationInProgress:
			// 取消已请求，迟到的结果一律丢弃
			r.Status = types.TaskStatusCancelled
			r.Proof = nil
			r.Error = ErrCancelled.Error()
		default:
			return errStaleAttempt
		}
		return nil
	})
	if err != nil {
		o.logger.Infof("丢弃过期尝试的结果: fingerprint=%s, attempt=%s, reason=%v", fp, attempt, err)
		return
	}

	if rec.Status == types.TaskStatusFailed {
		o.logger.Warnf("证明任务失败: fingerprint=%s, proof_type=%s, error=%s", fp, rec.ProofType, rec.Error)
	}
	o.publishTransition(rec, from)
}

// Status 实现 prover.Orchestrator
func (o *Orchestrator) Status(req *types.ProofRequest) (types.TaskRecord, bool) {
	return o.ledger.Get(fingerprint.Build(req))
}

// Await 实现 prover.Orchestrator
//
// 按固定间隔轮询台账，直到任务进入终态、任务消失或 ctx 结束；
// ctx 结束时同时返回最后一次看到的记录。
func (o *Orchestrator) Await(ctx context.Context, req *types.ProofRequest) (types.TaskRecord, error) {
	fp := fingerprint.Build(req)

	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()

	for {
		rec, ok := o.ledger.Get(fp)
		if !ok {
			return types.TaskRecord{}, WrapTaskNotFoundError(fp)
		}
		if rec.Status.IsTerminal() {
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return rec, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cancel 实现 prover.Orchestrator
func (o *Orchestrator) Cancel(req *types.ProofRequest) error {
	return o.cancel(fingerprint.Build(req))
}

func (o *Orchestrator) cancel(fp types.Fingerprint) error {
	rec, h, err := o.ledger.Detach(fp, func(r *types.TaskRecord) error {
		switch {
		case r.Status.IsTerminal():
			return WrapAlreadyTerminalError(fp, r.Status)
		case r.Status == types.TaskStatusCancellationInProgress:
			return WrapCancellationInProgressError(fp)
		case r.Status == types.TaskStatusRegistered:
			return WrapNotDispatchedError(fp)
		}
		r.Status = types.TaskStatusCancellationInProgress
		return nil
	})
	if err != nil {
		return err
	}
	o.publishTransition(rec, types.TaskStatusWorkInProgress)

	if h == nil {
		// WorkInProgress 一定挂有句柄，走到这里说明台账被外部改写
		o.logger.Errorf("取消的任务没有计算句柄: fingerprint=%s", fp)
		return nil
	}
	h.Cancel()
	o.logger.Infof("已请求取消证明任务: fingerprint=%s, attempt=%s", fp, rec.Attempt)
	return nil
}

// Report 实现 prover.Orchestrator
func (o *Orchestrator) Report() []types.TaskReport {
	records := o.ledger.List()
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].Fingerprint.String() < records[j].Fingerprint.String()
	})

	out := make([]types.TaskReport, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Report())
	}
	return out
}

// Prune 实现 prover.Orchestrator
func (o *Orchestrator) Prune() int {
	var removed int
	for _, rec := range o.ledger.List() {
		if !rec.Status.IsTerminal() {
			continue
		}
		if _, ok := o.ledger.RemoveIf(rec.Fingerprint, func(r types.TaskRecord) bool {
			return r.Status.IsTerminal()
		}); ok {
			removed++
		}
	}
	if removed > 0 {
		o.logger.Infof("已清理终态任务: removed=%d", removed)
	}
	return removed
}

// StatusCounts 各状态的任务数量
func (o *Orchestrator) StatusCounts() map[types.TaskStatus]int {
	counts := make(map[types.TaskStatus]int)
	for _, rec := range o.ledger.List() {
		counts[rec.Status]++
	}
	return counts
}

// Close 停止接收提交，取消所有进行中的计算并等待其完成
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	for _, rec := range o.ledger.List() {
		if rec.Status != types.TaskStatusWorkInProgress {
			continue
		}
		if err := o.cancel(rec.Fingerprint); err != nil && !errors.Is(err, ErrAlreadyTerminal) {
			o.logger.Debugf("关闭时取消任务失败: fingerprint=%s, err=%v", rec.Fingerprint, err)
		}
	}

	done := make(chan struct{})
	go func() {
		o.watchers.Wait()
		close(done)
	}()

	defer o.baseCancel()
	select {
	case <-done:
		o.logger.Info("证明编排器已关闭")
		return nil
	case <-ctx.Done():
		o.logger.Warnf("等待进行中的证明任务结束超时: %v", ctx.Err())
		return ctx.Err()
	}
}

func (o *Orchestrator) publishTransition(rec types.TaskRecord, from types.TaskStatus) {
	now := o.now()
	o.logger.Debugf("任务状态变更: fingerprint=%s, attempt=%s, %s -> %s",
		rec.Fingerprint, rec.Attempt, from, rec.Status)
	if o.events == nil {
		return
	}
	o.events.Publish(types.EventTypeTaskStatusChanged, types.TaskStatusChangedEvent{
		Fingerprint: rec.Fingerprint,
		Attempt:     rec.Attempt,
		ProofType:   rec.ProofType,
		From:        from,
		To:          rec.Status,
		Elapsed:     now.Sub(rec.CreatedAt),
		At:          now,
	})
}

func (o *Orchestrator) publishSubmitted(fp types.Fingerprint, pt types.ProofType, outcome types.SubmitOutcome) {
	if o.events == nil {
		return
	}
	o.events.Publish(types.EventTypeTaskSubmitted, types.TaskSubmittedEvent{
		Fingerprint: fp,
		ProofType:   pt,
		Outcome:     outcome,
	})
}

var _ prover.Orchestrator = (*Orchestrator)(nil)
