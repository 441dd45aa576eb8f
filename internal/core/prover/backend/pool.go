package backend

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/types"
)

// ============================================================================
// 原生证明工作线程池
// ============================================================================
//
// 🎯 **设计目的**：
// 限制进程内同时执行的原生证明数量，超出的任务在有界队列中等待。
//
// 🏗️ **实现策略**：
// - 固定数量的 worker 从同一个 channel 取任务
// - 队列满时提交立即失败，不阻塞调用方
// - 排队中的任务被取消或超时时立即结束，出队后直接跳过
// - 关闭时中止进行中的计算，队列中剩余任务以 ErrBackendClosed 结束
//
// ============================================================================

// computeFunc 在 worker 上执行的计算
type computeFunc func(ctx context.Context) (*types.Proof, error)

// job 队列中的一个计算任务
type job struct {
	ctx     context.Context
	handle  *handle
	compute computeFunc
}

// WorkerHealthStatus 工作线程健康状态
type WorkerHealthStatus string

const (
	// WorkerHealthHealthy 健康
	WorkerHealthHealthy WorkerHealthStatus = "healthy"

	// WorkerHealthDegraded 降级（失败率过半）
	WorkerHealthDegraded WorkerHealthStatus = "degraded"

	// WorkerHealthUnhealthy 不健康（只有失败）
	WorkerHealthUnhealthy WorkerHealthStatus = "unhealthy"
)

// unhealthyErrorThreshold 无任何成功时判定为不健康的失败次数
const unhealthyErrorThreshold = 10

// worker 工作线程
type worker struct {
	workerID int
	jobs     <-chan *job
	stopCh   <-chan struct{}
	closing  context.Context
	doneCh   chan struct{}
	logger   log.Logger

	processedCount atomic.Int64
	successCount   atomic.Int64
	errorCount     atomic.Int64
	cancelledCount atomic.Int64

	healthStatus atomic.Value // WorkerHealthStatus
}

func newWorker(workerID int, jobs <-chan *job, stopCh <-chan struct{}, closing context.Context, logger log.Logger) *worker {
	w := &worker{
		workerID: workerID,
		jobs:     jobs,
		stopCh:   stopCh,
		closing:  closing,
		doneCh:   make(chan struct{}),
		logger:   logger,
	}
	w.healthStatus.Store(WorkerHealthHealthy)
	return w
}

// run 工作线程主循环
func (w *worker) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case j := <-w.jobs:
			w.process(j)
		}
	}
}

// process 执行单个任务
func (w *worker) process(j *job) {
	if !j.handle.begin() {
		w.cancelledCount.Add(1)
		return
	}

	// 线程池关闭时中止进行中的计算
	release := context.AfterFunc(w.closing, func() { j.handle.cancel(ErrBackendClosed) })
	defer release()

	proof, err := j.compute(j.ctx)
	w.processedCount.Add(1)

	// 计算期间被取消时以取消原因为准
	if j.ctx.Err() != nil {
		w.cancelledCount.Add(1)
		j.handle.finish(nil, context.Cause(j.ctx))
		return
	}

	if err != nil {
		w.errorCount.Add(1)
		w.updateHealthStatus()
		if w.logger != nil {
			w.logger.Debugf("工作线程%d计算失败: %v", w.workerID, err)
		}
		j.handle.finish(nil, err)
		return
	}

	w.successCount.Add(1)
	w.updateHealthStatus()
	j.handle.finish(proof, nil)
}

// updateHealthStatus 根据成功/失败计数更新健康状态
func (w *worker) updateHealthStatus() {
	errorCount := w.errorCount.Load()
	successCount := w.successCount.Load()

	switch {
	case successCount == 0 && errorCount > unhealthyErrorThreshold:
		w.healthStatus.Store(WorkerHealthUnhealthy)
	case errorCount > 0 && float64(errorCount)/float64(errorCount+successCount) > 0.5:
		w.healthStatus.Store(WorkerHealthDegraded)
	default:
		w.healthStatus.Store(WorkerHealthHealthy)
	}
}

func (w *worker) health() WorkerHealthStatus {
	status, _ := w.healthStatus.Load().(WorkerHealthStatus)
	return status
}

// PoolStats 线程池统计
type PoolStats struct {
	Workers          int   `json:"workers"`
	QueueSize        int   `json:"queue_size"`
	Queued           int   `json:"queued"`
	Processed        int64 `json:"processed"`
	Succeeded        int64 `json:"succeeded"`
	Errors           int64 `json:"errors"`
	Cancelled        int64 `json:"cancelled"`
	HealthyWorkers   int   `json:"healthy_workers"`
	DegradedWorkers  int   `json:"degraded_workers"`
	UnhealthyWorkers int   `json:"unhealthy_workers"`
}

// workerPool 工作线程池
type workerPool struct {
	workers []*worker
	jobs    chan *job
	stopCh  chan struct{}
	closing context.Context
	abort   context.CancelFunc
	logger  log.Logger

	// 保护 jobs 的发送与关闭
	mu     sync.RWMutex
	closed bool
}

// newWorkerPool 创建并启动工作线程池
func newWorkerPool(workerCount, queueSize int, logger log.Logger) *workerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	closing, abort := context.WithCancel(context.Background())
	p := &workerPool{
		jobs:    make(chan *job, queueSize),
		stopCh:  make(chan struct{}),
		closing: closing,
		abort:   abort,
		logger:  logger,
	}
	p.workers = make([]*worker, workerCount)
	for i := 0; i < workerCount; i++ {
		w := newWorker(i, p.jobs, p.stopCh, closing, logger)
		p.workers[i] = w
		go w.run()
	}

	if logger != nil {
		logger.Infof("原生证明工作线程池已启动: workers=%d, queue=%d", workerCount, queueSize)
	}
	return p
}

// submit 非阻塞地提交任务
//
// 队列为0时，只有存在空闲 worker 才能提交成功。
func (p *workerPool) submit(j *job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrBackendClosed
	}
	select {
	case p.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// stop 停止所有 worker，中止进行中的计算并等待其退出
func (p *workerPool) stop(timeout time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stopCh)
	p.abort()
	p.mu.Unlock()

	deadline := time.After(timeout)
	for _, w := range p.workers {
		select {
		case <-w.doneCh:
		case <-deadline:
			if p.logger != nil {
				p.logger.Warnf("等待原生证明工作线程退出超时: timeout=%s", timeout)
			}
			p.drain()
			return
		}
	}
	p.drain()

	if p.logger != nil {
		p.logger.Info("原生证明工作线程池已停止")
	}
}

// drain 结束队列中剩余的任务
func (p *workerPool) drain() {
	for {
		select {
		case j := <-p.jobs:
			j.handle.finish(nil, ErrBackendClosed)
		default:
			return
		}
	}
}

// stats 获取统计信息
func (p *workerPool) stats() PoolStats {
	s := PoolStats{
		Workers:   len(p.workers),
		QueueSize: cap(p.jobs),
		Queued:    len(p.jobs),
	}
	for _, w := range p.workers {
		s.Processed += w.processedCount.Load()
		s.Succeeded += w.successCount.Load()
		s.Errors += w.errorCount.Load()
		s.Cancelled += w.cancelledCount.Load()
		switch w.health() {
		case WorkerHealthHealthy:
			s.HealthyWorkers++
		case WorkerHealthDegraded:
			s.DegradedWorkers++
		case WorkerHealthUnhealthy:
			s.UnhealthyWorkers++
		}
	}
	return s
}
