package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

// ============================================================================
// 任务台账
// ============================================================================
//
// 🎯 **设计目的**：
// 以请求指纹为键保存每个证明任务的唯一记录，是"同一请求是否已在处理"
// 这一问题的唯一裁决者。
//
// 🏗️ **实现策略**：
// - 16 个分片，按指纹首字节分配，每个分片一把互斥锁 + 一个 map；
// - 所有读改写都在分片锁内完成，对同一指纹的并发操作线性化；
// - 计算句柄与记录放在一起保存，但只在 WorkInProgress 期间存在，
//   记录离开 WorkInProgress 时句柄随之摘除；
// - 对外只返回记录副本。
//
// ⚠️ **注意**：
// - 配置了存储时，每次变更在分片锁内同步写入，写入失败只记日志，
//   内存中的记录始终是权威状态。
//
// ============================================================================

const shardCount = 16

var (
	// ErrTaskNotFound 台账中没有该指纹的记录
	ErrTaskNotFound = errors.New("task not found")

	// ErrHandleRequiresInProgress 只有 WorkInProgress 的记录可以挂接句柄
	ErrHandleRequiresInProgress = errors.New("handle can only be attached to a work-in-progress task")
)

// entry 台账条目
type entry struct {
	record types.TaskRecord
	handle prover.Handle
}

type shard struct {
	mu      sync.Mutex
	entries map[types.Fingerprint]*entry
}

// Ledger 任务台账
type Ledger struct {
	shards [shardCount]shard

	store  storage.KVStore
	logger log.Logger
	now    func() time.Time
}

// Option 台账选项
type Option func(*Ledger)

// WithStore 将每次变更持久化到键值存储
func WithStore(store storage.KVStore) Option {
	return func(l *Ledger) { l.store = store }
}

// WithLogger 设置日志记录器
func WithLogger(logger log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock 设置时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New 创建任务台账
func New(opts ...Option) *Ledger {
	l := &Ledger{now: time.Now}
	for i := range l.shards {
		l.shards[i].entries = make(map[types.Fingerprint]*entry)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) shardFor(fp types.Fingerprint) *shard {
	return &l.shards[fp[0]%shardCount]
}

// InsertIfAbsent 指纹不存在时插入记录
//
// 返回是否插入，以及插入后（或已存在的）记录副本。
func (l *Ledger) InsertIfAbsent(rec types.TaskRecord) (bool, types.TaskRecord) {
	s := l.shardFor(rec.Fingerprint)
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[rec.Fingerprint]; ok {
		return false, existing.record
	}
	now := l.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	s.entries[rec.Fingerprint] = &entry{record: rec}
	l.persist(rec)
	return true, rec
}

// Get 获取记录副本
func (l *Ledger) Get(fp types.Fingerprint) (types.TaskRecord, bool) {
	s := l.shardFor(fp)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fp]
	if !ok {
		return types.TaskRecord{}, false
	}
	return e.record, true
}

// UpdateStatus 直接设置记录状态
func (l *Ledger) UpdateStatus(fp types.Fingerprint, status types.TaskStatus) error {
	_, err := l.Update(fp, func(rec *types.TaskRecord) error {
		rec.Status = status
		return nil
	})
	return err
}

// Update 原子读改写
//
// fn 在分片锁内对记录副本执行；返回错误时不做任何修改，错误原样返回。
// 记录离开 WorkInProgress 时挂接的句柄被丢弃。
func (l *Ledger) Update(fp types.Fingerprint, fn func(rec *types.TaskRecord) error) (types.TaskRecord, error) {
	rec, _, err := l.update(fp, fn, nil, false)
	return rec, err
}

// Attach 原子读改写并挂接计算句柄
//
// fn 执行后记录必须处于 WorkInProgress，否则返回 ErrHandleRequiresInProgress 且不修改。
func (l *Ledger) Attach(fp types.Fingerprint, h prover.Handle, fn func(rec *types.TaskRecord) error) (types.TaskRecord, error) {
	rec, _, err := l.update(fp, fn, h, false)
	return rec, err
}

// Detach 原子读改写并摘除计算句柄
//
// 返回被摘除的句柄（可能为 nil），调用方负责在锁外使用它。
func (l *Ledger) Detach(fp types.Fingerprint, fn func(rec *types.TaskRecord) error) (types.TaskRecord, prover.Handle, error) {
	return l.update(fp, fn, nil, true)
}

func (l *Ledger) update(fp types.Fingerprint, fn func(rec *types.TaskRecord) error, attach prover.Handle, detach bool) (types.TaskRecord, prover.Handle, error) {
	s := l.shardFor(fp)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fp]
	if !ok {
		return types.TaskRecord{}, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, fp)
	}

	next := e.record
	if err := fn(&next); err != nil {
		return e.record, nil, err
	}
	if attach != nil && next.Status != types.TaskStatusWorkInProgress {
		return e.record, nil, ErrHandleRequiresInProgress
	}
	next.Fingerprint = fp
	next.UpdatedAt = l.now()

	var detached prover.Handle
	switch {
	case attach != nil:
		e.handle = attach
	case detach:
		detached, e.handle = e.handle, nil
	case next.Status != types.TaskStatusWorkInProgress:
		e.handle = nil
	}

	e.record = next
	l.persist(next)
	return next, detached, nil
}

// Remove 删除记录
func (l *Ledger) Remove(fp types.Fingerprint) (types.TaskRecord, bool) {
	return l.RemoveIf(fp, func(types.TaskRecord) bool { return true })
}

// RemoveIf 在 pred 为真时删除记录（判断与删除在同一把锁内）
func (l *Ledger) RemoveIf(fp types.Fingerprint, pred func(rec types.TaskRecord) bool) (types.TaskRecord, bool) {
	s := l.shardFor(fp)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fp]
	if !ok || !pred(e.record) {
		return types.TaskRecord{}, false
	}
	delete(s.entries, fp)
	l.unpersist(fp)
	return e.record, true
}

// List 返回所有记录副本（顺序不定）
//
// 依次锁住全部分片，得到的是一个一致的快照。
func (l *Ledger) List() []types.TaskRecord {
	for i := range l.shards {
		l.shards[i].mu.Lock()
	}
	defer func() {
		for i := range l.shards {
			l.shards[i].mu.Unlock()
		}
	}()

	var n int
	for i := range l.shards {
		n += len(l.shards[i].entries)
	}
	out := make([]types.TaskRecord, 0, n)
	for i := range l.shards {
		for _, e := range l.shards[i].entries {
			out = append(out, e.record)
		}
	}
	return out
}

// Len 记录总数
func (l *Ledger) Len() int {
	var n int
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}
